package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box border.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Calories lipgloss.Style
	Selected, Help                                 lipgloss.Style

	Border    lipgloss.Border
	BorderFg  lipgloss.TerminalColor
	Cursor    string
	SymOK     string
	SymFail   string
	SymTotal  string
	SymSearch string
}

var current = build("classic", false)

// SetTheme switches the palette. noColor, or the "mono" theme, drops all color.
func SetTheme(name string, noColor bool) {
	current = build(name, noColor)
}

// Current exposes what renderers need.
func Current() Theme { return current }

func build(name string, noColor bool) Theme {
	plain := lipgloss.NewStyle()
	var t Theme
	switch strings.ToLower(name) {
	case "neon":
		t = Theme{
			Title:    plain.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:    plain.Faint(true),
			Accent:   plain.Foreground(lipgloss.Color("14")),
			Success:  plain.Foreground(lipgloss.Color("10")),
			Error:    plain.Foreground(lipgloss.Color("9")).Bold(true),
			Calories: plain.Foreground(lipgloss.Color("11")),
			Selected: plain.Bold(true).Foreground(lipgloss.Color("13")),
			Help:     plain.Faint(true),
			Border:   lipgloss.RoundedBorder(),
			BorderFg: lipgloss.Color("13"),
			Cursor:   "❯ ", SymOK: "✔", SymFail: "✖", SymTotal: "Σ", SymSearch: "⌕ ",
		}
	case "mono":
		noColor = true
		t = Theme{
			Border: lipgloss.NormalBorder(),
			Cursor: "> ", SymOK: "ok", SymFail: "error:", SymTotal: "total", SymSearch: "/ ",
		}
	default: // classic
		t = Theme{
			Title:    plain.Bold(true),
			Muted:    plain.Faint(true),
			Accent:   plain.Foreground(lipgloss.Color("12")),
			Success:  plain.Foreground(lipgloss.Color("42")),
			Error:    plain.Foreground(lipgloss.Color("9")).Bold(true),
			Calories: plain.Foreground(lipgloss.Color("214")),
			Selected: plain.Bold(true).Reverse(true),
			Help:     plain.Faint(true),
			Border:   lipgloss.RoundedBorder(),
			BorderFg: lipgloss.Color("8"),
			Cursor:   "> ", SymOK: "✔", SymFail: "✖", SymTotal: "Σ", SymSearch: "/ ",
		}
	}
	if noColor {
		t.Title, t.Muted, t.Accent, t.Success = plain, plain, plain, plain
		t.Error, t.Calories, t.Selected, t.Help = plain, plain, plain, plain
		t.BorderFg = lipgloss.NoColor{}
	}
	if t.BorderFg == nil {
		t.BorderFg = lipgloss.NoColor{}
	}
	return t
}
