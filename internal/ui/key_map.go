package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter     key.Binding
	back      key.Binding
	toggle    key.Binding
	start     key.Binding
	end       key.Binding
	download  key.Binding
	open      key.Binding
	save      key.Binding
	retry     key.Binding
	restart   key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "range start")),
		end:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "range end")),
		download:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "download")),
		open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		save:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "save zip")),
		retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		restart:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new playlist")),
		quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.start, k.end, k.download},
		{k.open, k.save, k.retry, k.restart},
		{k.back, k.quit},
	}
}
