// Package model mirrors the window/tab tree reported by kitty's "ls" command.
//
// The tree is read-only: kitty creates and destroys windows, the switcher only
// takes a snapshot and renders it. The one UI-only field is Tab.Expanded.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Layout names understood by kitty.
const (
	LayoutStack      = "stack"
	LayoutTall       = "tall"
	LayoutFat        = "fat"
	LayoutGrid       = "grid"
	LayoutHorizontal = "horizontal"
	LayoutVertical   = "vertical"
	LayoutSplits     = "splits"
)

// ShellIntegrationEnv is the window environment variable kitty sets when
// shell integration is active.
const ShellIntegrationEnv = "KITTY_SHELL_INTEGRATION"

// ErrNoTabs is returned when a listing has no OS window with tabs.
var ErrNoTabs = errors.New("listing contains no tabs")

// Process is a foreground process running in a window.
type Process struct {
	PID     int      `json:"pid"`
	Cmdline []string `json:"cmdline"`
	Cwd     string   `json:"cwd"`
}

// Window is a kitty window (a pane inside a tab).
type Window struct {
	// ID is unique within the kitty instance.
	ID    int64  `json:"id"`
	Title string `json:"title"`
	// Cwd is the working directory of the window's foreground process.
	Cwd                 string            `json:"cwd"`
	Env                 map[string]string `json:"env"`
	Cmdline             []string          `json:"cmdline"`
	ForegroundProcesses []Process         `json:"foreground_processes"`
	IsActive            bool              `json:"is_active"`
	IsFocused           bool              `json:"is_focused"`
	// IsSelf marks the window running the process that issued the listing.
	IsSelf bool `json:"is_self"`
}

// ShellIntegration reports whether the window has shell integration enabled.
// Only such windows are shown by the switcher.
func (w Window) ShellIntegration() bool {
	return w.Env[ShellIntegrationEnv] == "enabled"
}

// Group is a set of windows that kitty stacks in the same slot of a layout.
type Group struct {
	ID      int64   `json:"id"`
	Windows []int64 `json:"windows"`
}

// Tab is a kitty tab.
type Tab struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Layout    string   `json:"layout"`
	Windows   []Window `json:"windows"`
	Groups    []Group  `json:"groups"`
	IsActive  bool     `json:"is_active"`
	IsFocused bool     `json:"is_focused"`

	// Expanded is switcher state, never sent back to kitty.
	Expanded bool `json:"-"`
}

// TargetWindow returns the window to focus when the tab itself is selected:
// the active or focused window, falling back to the first one.
func (t Tab) TargetWindow() (Window, bool) {
	for _, w := range t.Windows {
		if w.IsActive || w.IsFocused {
			return w, true
		}
	}
	if len(t.Windows) > 0 {
		return t.Windows[0], true
	}
	return Window{}, false
}

// StackedGroup returns the IDs of the first group holding more than one
// window. In the active tab this is the window covered by the switcher's
// overlay.
func (t Tab) StackedGroup() []int64 {
	for _, g := range t.Groups {
		if len(g.Windows) > 1 {
			return g.Windows
		}
	}
	return nil
}

// OSWindow is a top level kitty window holding tabs.
type OSWindow struct {
	ID        int64 `json:"id"`
	IsActive  bool  `json:"is_active"`
	IsFocused bool  `json:"is_focused"`
	Tabs      []Tab `json:"tabs"`
}

// ActiveOSWindow returns the active OS window, or the first one when none is
// flagged active.
func ActiveOSWindow(windows []OSWindow) (OSWindow, error) {
	for _, w := range windows {
		if w.IsActive {
			return w, nil
		}
	}
	if len(windows) > 0 {
		return windows[0], nil
	}
	return OSWindow{}, ErrNoTabs
}

// ParseListing decodes the JSON document returned by kitty's "ls" command.
func ParseListing(data []byte) ([]OSWindow, error) {
	var windows []OSWindow
	if err := json.Unmarshal(data, &windows); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	return windows, nil
}

// FilterWindows returns the windows with shell integration, in order.
func FilterWindows(windows []Window) []Window {
	visible := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.ShellIntegration() {
			visible = append(visible, w)
		}
	}
	return visible
}
