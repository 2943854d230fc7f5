// Package render lays out the switcher frame: the tab list on top and a row
// of bordered preview panes bottom-aligned below it.
//
// Frame is a pure function of its Input. All widths are measured with the
// escape-aware text model so captured colors never shift the borders.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/kitty-mux/internal/ansi"
	"github.com/timvw/kitty-mux/internal/model"
	"github.com/timvw/kitty-mux/internal/nav"
)

// DefaultMaxPanes is the number of previews shown for a selected tab.
const DefaultMaxPanes = 4

// minPaneWidth fits the two padding columns around a one column cell. The
// first pane is the narrowest, so it decides whether the block fits at all.
const minPaneWidth = 3

const (
	activeArrow   = "➤"
	iconCollapsed = "\uf196 "
	iconExpanded  = "\uf147 "
	reset         = "\x1b[0m"
)

// Input is everything a frame depends on.
type Input struct {
	Snapshot *model.Snapshot
	Cursor   nav.Cursor
	Previews map[int64][]ansi.Text
	Rows     int
	Cols     int
	Styles   Styles
	// MaxPanes caps the previews of a selected tab; zero means DefaultMaxPanes.
	MaxPanes int
}

// Frame returns the screen lines, never more than in.Rows.
func Frame(in Input) []string {
	lines := Entries(in)
	if len(in.Previews) == 0 {
		return clip(lines, in.Rows)
	}

	panes := previewSet(in)
	if len(panes) == 0 || PaneWidth(in.Cols, len(panes), 0) < minPaneWidth {
		return clip(lines, in.Rows)
	}
	height := PaneHeight(in.Rows)

	// 2 border lines and 1 line kitty keeps for its tab bar.
	for i := in.Rows - len(lines) - height - 2 - 1; i > 0; i-- {
		lines = append(lines, "")
	}
	lines = append(lines, panesBlock(in, panes, height)...)
	return clip(lines, in.Rows)
}

// Entries returns one line per tab and, for expanded tabs, one per window.
func Entries(in Input) []string {
	snap := in.Snapshot
	if snap.Len() == 0 {
		return nil
	}
	var lines []string
	for i, tab := range snap.Tabs {
		arrow := " "
		var group []int64
		if tab.IsActive {
			arrow = activeArrow
			group = tab.StackedGroup()
		}
		count := len(tab.Windows)
		icon := " "
		if count > 1 {
			icon = iconCollapsed
			if tab.Expanded {
				icon = iconExpanded
			}
		}
		name := fmt.Sprintf("(%d) %s %s - %d windows %s", i+1, arrow, tab.Title, count, icon)
		selected := in.Cursor.Kind == nav.EntryTab && in.Cursor.Tab == i
		style := in.Styles.Tab
		if tab.IsActive {
			style = in.Styles.Active
		}
		lines = append(lines, entry(in, name, selected, style))

		if !tab.Expanded {
			continue
		}
		indent := strings.Repeat(" ", len(strconv.Itoa(i+1))+5)
		for n, w := range tab.Windows {
			marker := " "
			if contains(group, w.ID) {
				marker = arrow
			}
			name := fmt.Sprintf("%s%s %d: %s", indent, marker, n+1, w.Title)
			selected := in.Cursor.Kind == nav.EntryWindow && in.Cursor.Tab == i && in.Cursor.Window == n
			lines = append(lines, entry(in, name, selected, in.Styles.Window))
		}
	}
	return lines
}

func entry(in Input, name string, selected bool, style lipgloss.Style) string {
	if in.Cols > 0 {
		name = ansi.Parse(name).Slice(in.Cols).String()
	}
	if selected {
		return in.Styles.Selected.Render(name)
	}
	return style.Render(name)
}

// PaneWidth returns the column width of pane idx out of count, borders
// excluded. The last pane takes the remainder so the block spans exactly
// cols columns.
func PaneWidth(cols, count, idx int) int {
	if count <= 0 {
		return 0
	}
	avail := cols - (count + 1)
	if avail < 0 {
		avail = 0
	}
	w := avail / count
	if idx == count-1 {
		w += avail % count
	}
	return w
}

// PaneHeight returns the number of preview lines per pane.
func PaneHeight(rows int) int {
	h := rows/2 - 2
	if h < 0 {
		return 0
	}
	return h
}

// previewSet returns the windows to preview: the selected window, or the
// first panes of the selected tab.
func previewSet(in Input) []model.Window {
	tab := in.Snapshot.Tab(in.Cursor.Tab)
	if tab == nil {
		return nil
	}
	if in.Cursor.Kind == nav.EntryWindow {
		if in.Cursor.Window >= 0 && in.Cursor.Window < len(tab.Windows) {
			return []model.Window{tab.Windows[in.Cursor.Window]}
		}
		return nil
	}
	limit := in.MaxPanes
	if limit <= 0 {
		limit = DefaultMaxPanes
	}
	if len(tab.Windows) < limit {
		return tab.Windows
	}
	return tab.Windows[:limit]
}

func panesBlock(in Input, panes []model.Window, height int) []string {
	count := len(panes)
	widths := make([]int, count)
	for i := range panes {
		widths[i] = PaneWidth(in.Cols, count, i)
	}

	lines := []string{border(in.Styles, widths, "┌", "┬", "┐")}

	// Rows continue only while every pane has a line.
	rows := height
	cells := make([][]string, count)
	for i, w := range panes {
		text := in.Previews[w.ID]
		if len(text) < rows {
			rows = len(text)
		}
		cells[i] = make([]string, 0, height)
		for j := 0; j < len(text) && j < height; j++ {
			cells[i] = append(cells[i], text[j].Fit(max0(widths[i]-2)).String())
		}
	}

	bar := in.Styles.Border.Render("│")
	for r := 0; r < rows; r++ {
		parts := make([]string, count)
		for i := range cells {
			parts[i] = cells[i][r]
		}
		lines = append(lines, bar+" "+strings.Join(parts, reset+" "+bar+" ")+" "+reset+bar)
	}

	lines = append(lines, border(in.Styles, widths, "└", "┴", "┘"))
	return lines
}

func border(st Styles, widths []int, left, middle, right string) string {
	var b strings.Builder
	b.WriteString(left)
	for i, w := range widths {
		b.WriteString(strings.Repeat("─", w))
		if i < len(widths)-1 {
			b.WriteString(middle)
		} else {
			b.WriteString(right)
		}
	}
	return st.Border.Render(b.String())
}

func clip(lines []string, rows int) []string {
	if rows >= 0 && len(lines) > rows {
		return lines[:rows]
	}
	return lines
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
