package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/foodtrack/internal/config"
	"github.com/Makepad-fr/foodtrack/internal/logger"
	"github.com/Makepad-fr/foodtrack/internal/store/jsonstore"
	"github.com/Makepad-fr/foodtrack/internal/tracker"
	"github.com/Makepad-fr/foodtrack/internal/tui"
	"github.com/Makepad-fr/foodtrack/internal/ui"
)

// Options wires the process streams; nil fields fall back to os.Std*.
type Options struct {
	In       io.Reader
	Out, Err io.Writer
}

// usageError marks bad invocations (exit code 2).
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app is the state shared by every subcommand once the root pre-run has
// loaded config and opened the data file.
type app struct {
	opt    Options
	cfg    *config.Config
	log    *logger.Logger
	tr     *tracker.Tracker
	status tracker.LoadStatus
}

// Run executes the command line and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if opt.In == nil {
		opt.In = os.Stdin
	}
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Err == nil {
		opt.Err = os.Stderr
	}
	a := &app{opt: opt}
	root := a.rootCommand()
	root.SetArgs(args)

	err := root.Execute()
	if a.log != nil {
		_ = a.log.Close()
	}
	if err == nil {
		return 0
	}
	ui.Fail(opt.Err, err.Error())

	var uerr *usageError
	switch {
	case errors.As(err, &uerr):
		fmt.Fprintln(opt.Err, ui.Current().Muted.Render("Hint: run `foodtrack help` for usage"))
		return 2
	case errors.Is(err, tracker.ErrSelection):
		fmt.Fprintln(opt.Err, ui.Current().Muted.Render("Hint: run `foodtrack ls` to see valid indexes"))
		return 2
	case tracker.IsUserError(err):
		return 2
	}
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "foodtrack",
		Short: "Track foods and their calories",
		Long: `foodtrack records food items and their calorie counts in a JSON file.

Run without a subcommand for the interactive list.`,
		Args:              noArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.SetIn(a.opt.In)
	root.SetOut(a.opt.Out)
	root.SetErr(a.opt.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "ui",
			Short: "Open the interactive list",
			Args:  noArgs,
			RunE:  func(*cobra.Command, []string) error { return a.runTUI() },
		},
		a.addCommand(),
		a.listCommand(),
		a.removeCommand(),
		a.editCommand(),
		a.sortCommand(),
		a.totalCommand(),
	)
	return root
}

// builtin reports whether cmd is one of cobra's own help or completion
// commands, which must not touch the data file.
func builtin(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if builtin(cmd) {
		return nil
	}
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	a.cfg = cfg
	ui.SetTheme(cfg.Theme, cfg.NoColor)

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.log = log.WithFields("cmd", cmd.Name())

	store, err := jsonstore.New(cfg.File)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.tr, a.status = tracker.Open(store, a.log)
	if a.status.Failed() && cmd.Name() != "foodtrack" && cmd.Name() != "ui" {
		msg := fmt.Sprintf("%s is unreadable (%v), starting empty", store.Path(), a.status.Err)
		if a.status.Quarantined != "" {
			msg += "; old file kept as " + a.status.Quarantined
		}
		ui.Fail(a.opt.Err, msg)
	}
	return nil
}

func (a *app) runTUI() error {
	if err := tui.Run(a.tr, a.status); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", cmd.UseLine())
		}
		return nil
	}
}

// parseIndex turns a 1-based index typed by the user into a store index.
func parseIndex(verb, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usagef("%s: not a number: %s", verb, s)
	}
	return n - 1, nil
}

// -------------- subcommand impls ----------------

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "add <name> <calories>",
		Short:   "Add a food item (quote names with spaces)",
		Example: `  foodtrack add "Greek yogurt" 120`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.tr.Add(args[0], args[1])
			if err != nil {
				return err
			}
			ui.OK(a.opt.Out, fmt.Sprintf("added %s (%d kcal)", f.Name, f.Calories))
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls [query]",
		Aliases: []string{"list"},
		Short:   "List items, optionally filtered by name",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usagef("usage: %s (quote queries with spaces)", cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			a.printList(query)
			return nil
		},
	}
}

func (a *app) removeCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"delete"},
		Short:   "Remove the item at a 1-based index",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex("rm", args[0])
			if err != nil {
				return err
			}
			foods := a.tr.Foods()
			if idx < 0 || idx >= len(foods) {
				return a.tr.Delete(idx)
			}
			if !yes {
				row := tracker.Row{Index: idx + 1, Food: foods[idx]}
				if !a.confirm(fmt.Sprintf("Delete %s?", row)) {
					fmt.Fprintln(a.opt.Out, ui.Current().Muted.Render("kept"))
					return nil
				}
			}
			if err := a.tr.Delete(idx); err != nil {
				return err
			}
			ui.OK(a.opt.Out, "removed")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index> <name> <calories>",
		Short: "Replace the item at a 1-based index",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex("edit", args[0])
			if err != nil {
				return err
			}
			f, err := a.tr.Update(idx, args[1], args[2])
			if err != nil {
				return err
			}
			ui.OK(a.opt.Out, fmt.Sprintf("updated %d. %s (%d kcal)", idx+1, f.Name, f.Calories))
			return nil
		},
	}
}

func (a *app) sortCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "sort <name|calories>",
		Short:     "Sort the stored list by name or by calories",
		Args:      exactArgs(1),
		ValidArgs: []string{"name", "calories"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch strings.ToLower(args[0]) {
			case "name":
				err = a.tr.SortByName()
			case "calories", "kcal":
				err = a.tr.SortByCalories()
			default:
				return usagef("sort: expected name or calories, got %q", args[0])
			}
			if err != nil {
				return err
			}
			ui.OK(a.opt.Out, "sorted by "+strings.ToLower(args[0]))
			return nil
		},
	}
}

func (a *app) totalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print total calories and item count",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.opt.Out, "Total Calories: %d\nTotal Items: %d\n", a.tr.TotalCalories(), a.tr.ItemCount())
			return nil
		},
	}
}

// -------------- rendering helpers --------------

func (a *app) printList(query string) {
	t := ui.Current()
	var lines []string
	lines = append(lines, ui.Summary(a.tr.TotalCalories(), a.tr.ItemCount()))
	if query != "" {
		lines = append(lines, t.Muted.Render("filter: "+query))
	}
	lines = append(lines, "")
	lines = append(lines, rowLines(a.tr.Filter(query), a.tr.ItemCount())...)
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `foodtrack add \"Apple\" 95`"))
	ui.Panel(a.opt.Out, lines)
}

func rowLines(rows []tracker.Row, total int) []string {
	t := ui.Current()
	if total == 0 {
		return []string{t.Muted.Render("no items")}
	}
	if len(rows) == 0 {
		return []string{t.Muted.Render("no matches")}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		name := r.Name
		if rs := []rune(name); len(rs) > 60 {
			name = string(rs[:57]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s - %s",
			t.Muted.Render(fmt.Sprintf("%2d.", r.Index)),
			name,
			t.Calories.Render(fmt.Sprintf("%d kcal", r.Calories))))
	}
	return out
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.opt.Out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(a.opt.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
