package render

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the switcher.
// Use DarkTheme() or LightTheme() to get a pre-built theme,
// or construct a custom Theme.
type Theme struct {
	Primary        lipgloss.Color // active tab
	Secondary      lipgloss.Color // selected entry text
	Text           lipgloss.Color // entry text
	TextMuted      lipgloss.Color // window lines
	BackgroundElem lipgloss.Color // selected entry background
	Border         lipgloss.Color // preview pane borders
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#fab283"),
		Secondary:      lipgloss.Color("#5c9cf5"),
		Text:           lipgloss.Color("#eeeeee"),
		TextMuted:      lipgloss.Color("#808080"),
		BackgroundElem: lipgloss.Color("#303030"),
		Border:         lipgloss.Color("#484848"),
	}
}

// LightTheme returns a light theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#b35c00"),
		Secondary:      lipgloss.Color("#0550ae"),
		Text:           lipgloss.Color("#1f2328"),
		TextMuted:      lipgloss.Color("#656d76"),
		BackgroundElem: lipgloss.Color("#eaeef2"),
		Border:         lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Selected lipgloss.Style
	Active   lipgloss.Style
	Tab      lipgloss.Style
	Window   lipgloss.Style
	Border   lipgloss.Style
}

// NewStyles builds all styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Selected: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Background(t.BackgroundElem),
		Active:   lipgloss.NewStyle().Foreground(t.Primary),
		Tab:      lipgloss.NewStyle().Foreground(t.Text),
		Window:   lipgloss.NewStyle().Foreground(t.TextMuted),
		Border:   lipgloss.NewStyle().Foreground(t.Border),
	}
}

// PlainStyles renders everything without decoration.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Selected: plain, Active: plain, Tab: plain, Window: plain, Border: plain}
}
