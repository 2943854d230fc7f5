// Package nav is the switcher's cursor state machine over a snapshot.
package nav

import "github.com/timvw/kitty-mux/internal/model"

// EntryKind says whether the cursor is on a tab line or a window line.
type EntryKind int

const (
	EntryTab EntryKind = iota
	EntryWindow
)

func (k EntryKind) String() string {
	if k == EntryWindow {
		return "window"
	}
	return "tab"
}

// Cursor selects one line of the list. Window is meaningful only for
// EntryWindow and indexes the tab's visible windows.
type Cursor struct {
	Tab    int
	Window int
	Kind   EntryKind
}

// Action is a navigation command decoded from a key.
type Action int

const (
	None Action = iota
	Down
	Up
	Left
	Right
	Home
	End
	Confirm
	Cancel
)

var actionNames = [...]string{"none", "down", "up", "left", "right", "home", "end", "confirm", "cancel"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Result is the outcome of one action.
type Result struct {
	// Changed is true when the list needs redrawing.
	Changed bool
	// Quit ends the switcher.
	Quit bool
	// FocusWindow is the window to focus before quitting, 0 for none.
	FocusWindow int64
}

// State is the cursor plus the snapshot it points into. Expansion flags live
// on the snapshot's tabs.
type State struct {
	Cursor Cursor
	tabs   *model.Snapshot
}

// NewState places the cursor on the active tab.
func NewState(snap *model.Snapshot) *State {
	s := &State{}
	s.Reset(snap)
	return s
}

// Reset switches to a new snapshot and moves the cursor to its active tab.
func (s *State) Reset(snap *model.Snapshot) {
	s.tabs = snap
	s.Cursor = Cursor{Tab: snap.ActiveTabIndex(), Window: -1, Kind: EntryTab}
}

// Replace switches to a new snapshot, keeping the cursor where it still
// fits.
func (s *State) Replace(snap *model.Snapshot) {
	s.tabs = snap
	s.Clamp()
}

// Snapshot returns the snapshot the cursor points into.
func (s *State) Snapshot() *model.Snapshot {
	return s.tabs
}

// Clamp pulls the cursor back inside the snapshot.
func (s *State) Clamp() {
	n := s.tabs.Len()
	if n == 0 {
		s.Cursor = Cursor{Window: -1}
		return
	}
	if s.Cursor.Tab < 0 {
		s.Cursor.Tab = 0
	}
	if s.Cursor.Tab >= n {
		s.Cursor.Tab = n - 1
	}
	if s.Cursor.Kind != EntryWindow {
		s.Cursor.Window = -1
		return
	}
	tab := s.tabs.Tab(s.Cursor.Tab)
	count := len(tab.Windows)
	switch {
	case !tab.Expanded || count == 0:
		s.Cursor.Kind = EntryTab
		s.Cursor.Window = -1
	case s.Cursor.Window < 0:
		s.Cursor.Window = 0
	case s.Cursor.Window >= count:
		s.Cursor.Window = count - 1
	}
}

// SelectedTab returns the tab under the cursor.
func (s *State) SelectedTab() *model.Tab {
	return s.tabs.Tab(s.Cursor.Tab)
}

// SelectedWindow returns the window under the cursor when it is on a
// window line.
func (s *State) SelectedWindow() (model.Window, bool) {
	tab := s.SelectedTab()
	if tab == nil || s.Cursor.Kind != EntryWindow {
		return model.Window{}, false
	}
	if s.Cursor.Window < 0 || s.Cursor.Window >= len(tab.Windows) {
		return model.Window{}, false
	}
	return tab.Windows[s.Cursor.Window], true
}

// Apply runs one action.
func (s *State) Apply(a Action) Result {
	if a == Cancel {
		return Result{Quit: true}
	}
	n := s.tabs.Len()
	if n == 0 {
		return Result{}
	}
	s.Clamp()
	tab := s.tabs.Tab(s.Cursor.Tab)

	switch a {
	case Down:
		if tab.Expanded && s.Cursor.Window < len(tab.Windows)-1 {
			s.Cursor.Kind = EntryWindow
			s.Cursor.Window++
		} else {
			s.Cursor = Cursor{Tab: (s.Cursor.Tab + 1) % n, Window: -1, Kind: EntryTab}
		}
		return Result{Changed: true}

	case Up:
		if s.Cursor.Kind == EntryTab {
			prev := (s.Cursor.Tab - 1 + n) % n
			s.Cursor = Cursor{Tab: prev, Window: -1, Kind: EntryTab}
			if pt := s.tabs.Tab(prev); pt.Expanded && len(pt.Windows) > 0 {
				s.Cursor.Kind = EntryWindow
				s.Cursor.Window = len(pt.Windows) - 1
			}
		} else if s.Cursor.Window == 0 {
			s.Cursor.Kind = EntryTab
			s.Cursor.Window = -1
		} else {
			s.Cursor.Window--
		}
		return Result{Changed: true}

	case Right:
		if s.Cursor.Kind == EntryTab && !tab.Expanded && len(tab.Windows) > 1 {
			tab.Expanded = true
			return Result{Changed: true}
		}
		return Result{}

	case Left:
		if tab.Expanded {
			tab.Expanded = false
			s.Cursor.Kind = EntryTab
			s.Cursor.Window = -1
			return Result{Changed: true}
		}
		return Result{}

	case Home:
		s.Cursor = Cursor{Tab: 0, Window: -1, Kind: EntryTab}
		return Result{Changed: true}

	case End:
		last := s.tabs.Tab(n - 1)
		s.Cursor = Cursor{Tab: n - 1, Window: -1, Kind: EntryTab}
		if last.Expanded && len(last.Windows) > 0 {
			s.Cursor.Kind = EntryWindow
			s.Cursor.Window = len(last.Windows) - 1
		}
		return Result{Changed: true}

	case Confirm:
		return s.confirm(tab)
	}
	return Result{}
}

// confirm resolves the window to focus. Selecting the active tab itself
// just closes the switcher.
func (s *State) confirm(tab *model.Tab) Result {
	if s.Cursor.Kind == EntryTab {
		if tab.IsActive {
			return Result{Quit: true}
		}
		w, ok := tab.TargetWindow()
		if !ok {
			return Result{Quit: true}
		}
		return Result{Quit: true, FocusWindow: w.ID}
	}
	w, ok := s.SelectedWindow()
	if !ok {
		return Result{Quit: true}
	}
	return Result{Quit: true, FocusWindow: w.ID}
}
