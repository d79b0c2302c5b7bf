package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings of the search surface.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Open  key.Binding
	Index key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default key bindings. Printable keys are left to the
// input line, so navigation uses arrows and control keys only.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/C-p", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/C-n", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Index: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "index"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Index, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
