package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Continue key.Binding
	Hit      key.Binding
	Stand    key.Binding
	Double   key.Binding
	Split    key.Binding
	Yes      key.Binding
	No       key.Binding
	Reset    key.Binding
	Terms    key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Continue: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start/bet/next")),
		Hit:      key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		Double:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "double")),
		Split:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "split")),
		Yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "super match/switch")),
		No:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip/keep")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Terms:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "accept terms")),
		ScrollUp: key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll log")),
		ScrollDn: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll log")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.Hit, k.Stand, k.Double, k.Split, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Continue, k.Hit, k.Stand, k.Double, k.Split},
		{k.Yes, k.No, k.Reset, k.Terms},
		{k.ScrollUp, k.ScrollDn, k.Help, k.Quit},
	}
}
