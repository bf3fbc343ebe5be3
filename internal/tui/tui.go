package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/foodtrack/internal/model"
	"github.com/Makepad-fr/foodtrack/internal/tracker"
	"github.com/Makepad-fr/foodtrack/internal/ui"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeUpdate
	modeSearch
	modeConfirm
)

// rowItem adapts tracker.Row to bubbles/list.Item
type rowItem struct{ tracker.Row }

func (i rowItem) Title() string       { return i.Row.String() }
func (i rowItem) Description() string { return "" }
func (i rowItem) FilterValue() string { return i.Name }

// changeMsg carries a tracker mutation into the update loop.
type changeMsg tracker.Change

// Model is the Bubble Tea model. It renders from the latest snapshot the
// tracker emitted and only talks to the tracker to mutate it.
type Model struct {
	tr       *tracker.Tracker
	snapshot []model.Food
	version  uint64
	changes  chan tracker.Change
	cancel   func()

	list   list.Model
	keys   keyMap
	mode   mode
	search textinput.Model

	// form inputs, shared by add and update
	name, cal textinput.Model
	focus     int
	editIndex int // 0-based store index while in modeUpdate

	confirmIndex int

	notice    string
	noticeErr bool
}

// itemDelegate renders one row per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(rowItem)
	if !ok {
		return
	}
	t := ui.Current()
	idx := t.Muted.Render(fmt.Sprintf("%2d.", it.Index))
	kcal := t.Calories.Render(fmt.Sprintf("%d kcal", it.Calories))
	prefix := "  "
	name := it.Name
	if index == m.Index() {
		prefix = t.Selected.Render(t.Cursor)
		name = t.Selected.Render(name)
	}
	fmt.Fprintf(w, "%s%s %s - %s", prefix, idx, name, kcal)
}

// New builds the model and subscribes it to tr. Call Close when done.
func New(tr *tracker.Tracker, status tracker.LoadStatus) Model {
	keys := defaultKeys()

	l := list.New(nil, itemDelegate{}, 76, 14)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("food", "foods")
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help
	l.AdditionalShortHelpKeys = keys.browse
	l.AdditionalFullHelpKeys = keys.browse
	l.KeyMap.Quit.SetEnabled(false)

	m := Model{
		tr:       tr,
		snapshot: tr.Foods(),
		version:  tr.Version(),
		changes:  make(chan tracker.Change, 1),
		list:     l,
		keys:     keys,
	}

	// latest wins: a slow reader only ever needs the newest snapshot
	ch := m.changes
	m.cancel = tr.Subscribe(func(c tracker.Change) {
		select {
		case <-ch:
		default:
		}
		ch <- c
	})

	m.search = textinput.New()
	m.search.Prompt = ui.Current().SymSearch
	m.search.Placeholder = "search by name"

	m.name = textinput.New()
	m.name.Prompt = "Food Name: "
	m.name.CharLimit = 120
	m.cal = textinput.New()
	m.cal.Prompt = "Calories:  "
	m.cal.CharLimit = 9

	if status.Failed() {
		msg := "data file unreadable, starting empty"
		if status.Quarantined != "" {
			msg += " (old file kept as " + status.Quarantined + ")"
		}
		m.setError(msg)
	}
	m.refresh()
	return m
}

// Close stops listening for tracker changes.
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Run starts the interactive list. Every mutation is saved as it happens.
func Run(tr *tracker.Tracker, status tracker.LoadStatus) error {
	m := New(tr, status)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func waitForChange(ch <-chan tracker.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

func (m Model) Init() tea.Cmd { return waitForChange(m.changes) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, max(msg.Height-m.chromeHeight(), 3))
		return m, nil

	case changeMsg:
		// usually already applied by sync; only a newer version moves the view
		if msg.Version > m.version {
			m.apply(msg.Version, msg.Snapshot)
		}
		return m, waitForChange(m.changes)

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeUpdate:
			return m.updateForm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.clearNotice()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Add):
		return m, m.openForm(modeAdd, model.Food{})

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.selected()
		if !ok {
			m.setError("please select a food item to edit")
			return m, nil
		}
		m.editIndex = row.Index - 1
		return m, m.openForm(modeUpdate, row.Food)

	case key.Matches(msg, m.keys.Take):
		row, ok := m.selected()
		if !ok {
			m.setError("please select a food item to edit")
			return m, nil
		}
		f, err := m.tr.Edit(row.Index - 1)
		if err != nil && !errors.Is(err, tracker.ErrPersistence) {
			m.setError(err.Error())
			return m, nil
		}
		m.sync()
		cmd := m.openForm(modeAdd, f)
		if err != nil {
			m.setError(err.Error())
		}
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.selected()
		if !ok {
			m.setError("please select a food item to delete")
			return m, nil
		}
		m.confirmIndex = row.Index - 1
		m.mode = modeConfirm
		return m, nil

	case key.Matches(msg, m.keys.SortName):
		m.report(m.tr.SortByName(), "sorted by name")
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.SortCalories):
		m.report(m.tr.SortByCalories(), "sorted by calories")
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeBrowse
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	switch strings.ToLower(msg.String()) {
	case "y":
		m.report(m.tr.Delete(m.confirmIndex), "deleted")
		m.sync()
	default:
		m.setNotice("delete cancelled")
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keys.ClearFields):
		m.name.SetValue("")
		m.cal.SetValue("")
		return m, m.setFocus(0)

	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		// two fields: either direction toggles
		return m, m.setFocus(1 - m.focus)

	case key.Matches(msg, m.keys.Submit):
		var (
			f   model.Food
			err error
			ok  string
		)
		if m.mode == modeUpdate {
			f, err = m.tr.Update(m.editIndex, m.name.Value(), m.cal.Value())
			ok = "updated"
		} else {
			f, err = m.tr.Add(m.name.Value(), m.cal.Value())
			ok = "added"
		}
		if tracker.IsUserError(err) {
			m.setError(err.Error())
			return m, nil
		}
		m.closeForm()
		m.sync()
		m.report(err, fmt.Sprintf("%s %s (%d kcal)", ok, f.Name, f.Calories))
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.cal, cmd = m.cal.Update(msg)
	}
	return m, cmd
}

func (m *Model) openForm(md mode, prefill model.Food) tea.Cmd {
	m.mode = md
	m.name.SetValue(prefill.Name)
	m.cal.SetValue("")
	if prefill.Calories > 0 {
		m.cal.SetValue(fmt.Sprint(prefill.Calories))
	}
	m.name.CursorEnd()
	m.cal.CursorEnd()
	return m.setFocus(0)
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.name.SetValue("")
	m.cal.SetValue("")
	m.name.Blur()
	m.cal.Blur()
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	if i == 0 {
		m.cal.Blur()
		return m.name.Focus()
	}
	m.name.Blur()
	return m.cal.Focus()
}

func (m Model) selected() (tracker.Row, bool) {
	it, ok := m.list.SelectedItem().(rowItem)
	if !ok {
		return tracker.Row{}, false
	}
	return it.Row, true
}

// sync pulls the tracker's list right after a mutation, so the next key acts
// on the order the tracker holds rather than on a pending change message.
func (m *Model) sync() {
	m.apply(m.tr.Version(), m.tr.Foods())
}

// apply installs a snapshot and keeps the cursor on the same food when it
// is still listed.
func (m *Model) apply(version uint64, foods []model.Food) {
	sel, hadSel := m.selected()
	m.version, m.snapshot = version, foods
	m.refresh()
	if !hadSel {
		return
	}
	for i, it := range m.list.Items() {
		if r, ok := it.(rowItem); ok && r.Name == sel.Name {
			m.list.Select(i)
			return
		}
	}
}

// refresh re-projects the current snapshot through the search query.
func (m *Model) refresh() {
	rows := tracker.Project(m.snapshot, m.search.Value())
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, rowItem{r})
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.setNotice(ok)
}

func (m *Model) setNotice(s string) { m.notice, m.noticeErr = s, false }
func (m *Model) setError(s string)  { m.notice, m.noticeErr = s, true }
func (m *Model) clearNotice()       { m.notice, m.noticeErr = "", false }

// chromeHeight is the number of lines View draws around the list.
func (m Model) chromeHeight() int { return 12 }

func (m Model) View() string {
	t := ui.Current()
	var b strings.Builder

	b.WriteString(ui.Summary(tracker.Sum(m.snapshot), len(m.snapshot)))
	b.WriteString("\n")
	if m.mode == modeSearch || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if len(m.snapshot) == 0 {
		b.WriteString(t.Muted.Render("no food items yet, press a to add one"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}

	switch m.mode {
	case modeAdd, modeUpdate:
		title := "Add food"
		if m.mode == modeUpdate {
			title = fmt.Sprintf("Edit item %d", m.editIndex+1)
		}
		form := t.Title.Render(title) + "\n" + m.name.View() + "\n" + m.cal.View() + "\n" +
			t.Help.Render("enter save • tab switch field • ctrl+l clear • esc cancel")
		b.WriteString(ui.BoxStyle().Render(form))
		b.WriteString("\n")
	case modeConfirm:
		prompt := "Are you sure you want to delete this item? [y/N]"
		if m.confirmIndex < len(m.snapshot) {
			row := tracker.Row{Index: m.confirmIndex + 1, Food: m.snapshot[m.confirmIndex]}
			prompt = fmt.Sprintf("Delete %s? [y/N]", row)
		}
		b.WriteString(t.Error.Render(prompt))
		b.WriteString("\n")
	}

	if m.notice != "" {
		if m.noticeErr {
			b.WriteString(t.Error.Render(t.SymFail + " " + m.notice))
		} else {
			b.WriteString(t.Success.Render(t.SymOK + " " + m.notice))
		}
	}
	return ui.BoxStyle().Render(strings.TrimRight(b.String(), "\n"))
}
