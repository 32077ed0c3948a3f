package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	tab     key.Binding
	seed    key.Binding
	add     key.Binding
	remove  key.Binding
	prev    key.Binding
	next    key.Binding
	lower   key.Binding
	raise   key.Binding
	create  key.Binding
	public  key.Binding
	restart key.Binding
	retry   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		seed:    key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s", "toggle seed")),
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to mixtape")),
		remove:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "remove")),
		prev:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev mood")),
		next:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next mood")),
		lower:   key.NewBinding(key.WithKeys("-", "h", "left"), key.WithHelp("←/-", "lower")),
		raise:   key.NewBinding(key.WithKeys("+", "=", "l", "right"), key.WithHelp("→/+", "raise")),
		create:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "create playlist")),
		public:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "toggle public")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start over")),
		retry:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to mixtape")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.tab},
		{k.seed, k.add, k.remove},
		{k.prev, k.next, k.lower, k.raise},
		{k.create, k.public, k.restart, k.quit},
	}
}
