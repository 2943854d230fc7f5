// Package session exports the active OS window as a kitty session file, so
// the current tabs can be recreated with `kitty --session`.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/timvw/kitty-mux/internal/model"
)

// selfListing is the foreground command of the window that ran the export.
const selfListing = "kitty @ ls"

// DefaultPath returns ~/.config/kitty/kitty-mux/kitty-session.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kitty", "kitty-mux", "kitty-session"), nil
}

// Convert renders the active OS window as session text. Only windows with
// shell integration are exported.
func Convert(windows []model.OSWindow) (string, error) {
	active, err := model.ActiveOSWindow(windows)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, tab := range active.Tabs {
		b.WriteString("\n")
		fmt.Fprintf(&b, "new_tab %s\n", tab.Title)
		fmt.Fprintf(&b, "layout %s\n", tab.Layout)

		for _, w := range model.FilterWindows(tab.Windows) {
			fmt.Fprintf(&b, "title %s\n", w.Title)
			fmt.Fprintf(&b, "cd %s\n", w.Cwd)
			b.WriteString(launchLine(w))
			b.WriteString("\n")
			if w.IsFocused {
				b.WriteString("focus\n")
			}
		}
	}
	return b.String(), nil
}

func launchLine(w model.Window) string {
	parts := []string{"launch"}
	keys := make([]string, 0, len(w.Env))
	for k := range w.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("--env %s=%s", k, w.Env[k]))
	}
	if cmd := foreground(w); cmd != "" {
		parts = append(parts, cmd)
	}
	return strings.Join(parts, " ")
}

// foreground returns the command line of the first foreground process. The
// window running the export gets the user's shell instead: it is recognized
// by kitty's is_self flag, by this process's pid, or by a `kitty @ ls`
// command line.
func foreground(w model.Window) string {
	if w.IsSelf || len(w.ForegroundProcesses) == 0 {
		return os.Getenv("SHELL")
	}
	p := w.ForegroundProcesses[0]
	cmd := strings.Join(p.Cmdline, " ")
	if p.PID == os.Getpid() || cmd == selfListing {
		return os.Getenv("SHELL")
	}
	return cmd
}

// Save writes text to path, creating parent directories.
func Save(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
