package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	ToggleHunk key.Binding
	ToggleDiff key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Apply      key.Binding
	Cancel     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	ToggleHunk: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "toggle"),
	),
	ToggleDiff: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle file"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup", "K"),
		key.WithHelp("pgup", "scroll hunk"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown", "J"),
		key.WithHelp("pgdn", "scroll hunk"),
	),
	Apply: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ToggleHunk, k.ToggleDiff, k.ScrollDown, k.Apply, k.Cancel}
}
