package switcher

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/kitty-mux/internal/nav"
)

// KeyMap defines the switcher's keybindings.
type KeyMap struct {
	Cancel   key.Binding
	Confirm  key.Binding
	Collapse key.Binding
	Expand   key.Binding
	Down     key.Binding
	Up       key.Binding
	Home     key.Binding
	End      key.Binding
	Refresh  key.Binding
}

// DefaultKeyMap returns the vi-style bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("q/esc", "close"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "collapse"),
		),
		Expand: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "expand"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first tab"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last tab"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Action maps a key press to a navigation action. Refresh is handled by the
// model itself and maps to nav.None.
func (k KeyMap) Action(msg tea.KeyMsg) nav.Action {
	switch {
	case key.Matches(msg, k.Cancel):
		return nav.Cancel
	case key.Matches(msg, k.Confirm):
		return nav.Confirm
	case key.Matches(msg, k.Collapse):
		return nav.Left
	case key.Matches(msg, k.Expand):
		return nav.Right
	case key.Matches(msg, k.Down):
		return nav.Down
	case key.Matches(msg, k.Up):
		return nav.Up
	case key.Matches(msg, k.Home):
		return nav.Home
	case key.Matches(msg, k.End):
		return nav.End
	}
	return nav.None
}

// IsRefresh reports whether msg asks for a new listing.
func (k KeyMap) IsRefresh(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Refresh)
}
