package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Tab         key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Enter       key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Copy        key.Binding
	Emoji       key.Binding
	EditChannel key.Binding
	Refresh     key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Help        key.Binding
	Escape      key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "left")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "right")),
		Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/send")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit message")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete message")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy message")),
		Emoji:       key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "emoji")),
		EditChannel: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "edit channel")),
		Refresh:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Escape:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Emoji, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Up, k.Down, k.Enter, k.PageUp, k.PageDown},
		{k.Edit, k.Delete, k.Copy},
		{k.Emoji, k.EditChannel, k.Refresh, k.Escape, k.Quit},
	}
}
