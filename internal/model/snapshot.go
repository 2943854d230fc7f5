package model

// Snapshot is the active OS window's tab tree at the time of one listing.
// Tabs hold only windows with shell integration. A Snapshot is replaced
// wholesale on relisting; there are no incremental updates.
type Snapshot struct {
	OSWindowID int64
	Tabs       []Tab
}

// NewSnapshot picks the active OS window and filters every tab's windows.
func NewSnapshot(windows []OSWindow) (*Snapshot, error) {
	osw, err := ActiveOSWindow(windows)
	if err != nil {
		return nil, err
	}
	if len(osw.Tabs) == 0 {
		return nil, ErrNoTabs
	}
	tabs := make([]Tab, len(osw.Tabs))
	for i, t := range osw.Tabs {
		t.Windows = FilterWindows(t.Windows)
		t.Expanded = false
		tabs[i] = t
	}
	return &Snapshot{OSWindowID: osw.ID, Tabs: tabs}, nil
}

// ActiveTabIndex returns the index of the active tab, or 0.
func (s *Snapshot) ActiveTabIndex() int {
	if s == nil {
		return 0
	}
	for i, t := range s.Tabs {
		if t.IsActive {
			return i
		}
	}
	return 0
}

// Len returns the number of tabs.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Tabs)
}

// Tab returns a pointer to the i-th tab, or nil when out of range.
func (s *Snapshot) Tab(i int) *Tab {
	if s == nil || i < 0 || i >= len(s.Tabs) {
		return nil
	}
	return &s.Tabs[i]
}

// WindowCount returns the number of visible windows across all tabs.
func (s *Snapshot) WindowCount() int {
	n := 0
	if s == nil {
		return n
	}
	for _, t := range s.Tabs {
		n += len(t.Windows)
	}
	return n
}
