package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BoxStyle is the framed box used by Panel and the TUI.
func BoxStyle() lipgloss.Style {
	t := Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderFg).
		Padding(0, 1)
}

// Panel draws lines inside a framed box using the current theme.
func Panel(w io.Writer, lines []string) {
	fmt.Fprintln(w, BoxStyle().Render(strings.Join(lines, "\n")))
}

func OK(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Success.Render(t.SymOK+" "+msg))
}

func Fail(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Error.Render(t.SymFail+" "+msg))
}

// Summary is the "Foods  Σ 225 kcal  Total 3" header line.
func Summary(total, count int) string {
	t := Current()
	return fmt.Sprintf("%s  %s %s  %s %d",
		t.Title.Render("Foods"),
		t.Calories.Render(t.SymTotal), t.Calories.Render(fmt.Sprintf("%d kcal", total)),
		t.Accent.Render("Items"), count,
	)
}
