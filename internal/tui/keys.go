package tui

import "github.com/charmbracelet/bubbles/key"

type sortKeys struct {
	up     key.Binding
	down   key.Binding
	pick   key.Binding
	left   key.Binding
	right  key.Binding
	drop   key.Binding
	direct key.Binding
	cancel key.Binding
	quit   key.Binding
}

func newSortKeys() sortKeys {
	return sortKeys{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev item"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next item"),
		),
		pick: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "pick up"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev category"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next category"),
		),
		drop: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "drop"),
		),
		direct: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "drop into category"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// dragging swaps the pick/navigate bindings for the hover/drop ones.
type sortHelp struct {
	k        sortKeys
	dragging bool
}

func (h sortHelp) ShortHelp() []key.Binding {
	if h.dragging {
		return []key.Binding{h.k.left, h.k.right, h.k.drop, h.k.direct, h.k.cancel}
	}
	return []key.Binding{h.k.up, h.k.down, h.k.pick, h.k.quit}
}

func (h sortHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }

type clozeKeys struct {
	next   key.Binding
	prev   key.Binding
	submit key.Binding
	quit   key.Binding
}

func newClozeKeys() clozeKeys {
	return clozeKeys{
		next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next blank"),
		),
		prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev blank"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k clozeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.submit, k.quit}
}

func (k clozeKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
