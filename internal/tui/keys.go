package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add, Edit, Take, Delete key.Binding
	SortName, SortCalories  key.Binding
	Search, Quit            key.Binding

	Submit, Cancel, NextField, PrevField, ClearFields key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:          key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Take:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "take out to edit")),
		Delete:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		SortName:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "sort by name")),
		SortCalories: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "sort by calories")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		NextField:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab", "up")),
		ClearFields: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear fields")),
	}
}

func (k keyMap) browse() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Take, k.Delete, k.SortName, k.SortCalories, k.Search}
}
