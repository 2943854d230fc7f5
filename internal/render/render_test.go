package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/timvw/kitty-mux/internal/ansi"
	"github.com/timvw/kitty-mux/internal/model"
	"github.com/timvw/kitty-mux/internal/nav"
)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{OSWindowID: 1, Tabs: []model.Tab{
		{ID: 10, Title: "a", Windows: []model.Window{{ID: 100, Title: "a1"}, {ID: 101, Title: "a2"}}},
		{ID: 11, Title: "b", IsActive: true,
			Windows: []model.Window{{ID: 110, Title: "b1"}, {ID: 111, Title: "b2"}},
			Groups:  []model.Group{{ID: 1, Windows: []int64{110, 111}}}},
		{ID: 12, Title: "c", Windows: []model.Window{{ID: 120, Title: "c1"}, {ID: 121, Title: "c2"}, {ID: 122, Title: "c3"}}},
	}}
}

// previews gives every window n lines mixing colors and wide runes.
func previews(n int) map[int64][]ansi.Text {
	out := map[int64][]ansi.Text{}
	for _, id := range []int64{100, 101, 110, 111, 120, 121, 122} {
		lines := make([]ansi.Text, n)
		for i := range lines {
			lines[i] = ansi.Parse(fmt.Sprintf("\x1b[3%dmline %d of window %d 世界 %s\x1b[m", i%8, i, id, strings.Repeat("x", 100)))
		}
		out[id] = lines
	}
	return out
}

func width(s string) int {
	return ansi.Parse(s).Width()
}

func TestPaneWidth(t *testing.T) {
	tests := []struct {
		cols, count int
		want        []int
	}{
		{80, 1, []int{78}},
		{80, 2, []int{38, 39}},
		{80, 3, []int{25, 25, 26}},
		{80, 4, []int{18, 18, 18, 21}},
		{81, 4, []int{19, 19, 19, 19}},
		{3, 4, []int{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.cols, tt.count), func(t *testing.T) {
			total := tt.count + 1
			for i, want := range tt.want {
				got := PaneWidth(tt.cols, tt.count, i)
				if got != want {
					t.Errorf("PaneWidth(%d, %d, %d) = %d, want %d", tt.cols, tt.count, i, got, want)
				}
				total += got
			}
			if tt.cols >= tt.count+1 && total != tt.cols {
				t.Errorf("widths + borders = %d, want %d", total, tt.cols)
			}
		})
	}
}

func TestPaneHeight(t *testing.T) {
	for rows, want := range map[int]int{24: 10, 25: 10, 5: 0, 0: 0, 3: 0} {
		if got := PaneHeight(rows); got != want {
			t.Errorf("PaneHeight(%d) = %d, want %d", rows, got, want)
		}
	}
}

func TestEntries(t *testing.T) {
	snap := testSnapshot()
	snap.Tabs[1].Expanded = true
	in := Input{Snapshot: snap, Cursor: nav.Cursor{Tab: 1, Window: 1, Kind: nav.EntryWindow}, Styles: PlainStyles()}

	got := Entries(in)
	want := []string{
		"(1)   a - 2 windows \uf196 ",
		"(2) ➤ b - 2 windows \uf147 ",
		"      ➤ 1: b1",
		"      ➤ 2: b2",
		"(3)   c - 3 windows \uf196 ",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEntries_SingleWindowTabHasNoIcon(t *testing.T) {
	snap := &model.Snapshot{Tabs: []model.Tab{{Title: "solo", Windows: []model.Window{{ID: 1}}}}}
	got := Entries(Input{Snapshot: snap, Styles: PlainStyles()})
	if len(got) != 1 || got[0] != "(1)   solo - 1 windows  " {
		t.Errorf("Entries = %q", got)
	}
}

func TestEntries_TruncatedToCols(t *testing.T) {
	snap := &model.Snapshot{Tabs: []model.Tab{{Title: strings.Repeat("t", 200)}}}
	got := Entries(Input{Snapshot: snap, Cols: 40, Styles: PlainStyles()})
	if width(got[0]) != 40 {
		t.Errorf("entry width = %d, want 40", width(got[0]))
	}
}

func TestFrame_NoPreviewsStopsAfterEntries(t *testing.T) {
	in := Input{Snapshot: testSnapshot(), Cursor: nav.Cursor{Tab: 1, Window: -1}, Rows: 24, Cols: 80, Styles: PlainStyles()}
	got := Frame(in)
	if len(got) != 3 {
		t.Errorf("got %d lines, want only the 3 tab entries", len(got))
	}
}

func TestFrame_BordersSpanCols(t *testing.T) {
	for _, cols := range []int{80, 81, 120, 37} {
		in := Input{
			Snapshot: testSnapshot(),
			Cursor:   nav.Cursor{Tab: 2, Window: -1, Kind: nav.EntryTab},
			Previews: previews(30),
			Rows:     24,
			Cols:     cols,
			Styles:   PlainStyles(),
		}
		frame := Frame(in)
		height := PaneHeight(in.Rows)
		block := frame[len(frame)-height-2:]

		if !strings.HasPrefix(block[0], "┌") || strings.Count(block[0], "┬") != 2 || !strings.HasSuffix(block[0], "┐") {
			t.Errorf("cols %d: top border = %q", cols, block[0])
		}
		if !strings.HasPrefix(block[len(block)-1], "└") || !strings.HasSuffix(block[len(block)-1], "┘") {
			t.Errorf("cols %d: bottom border = %q", cols, block[len(block)-1])
		}
		for i, line := range block {
			if w := width(line); w != cols {
				t.Errorf("cols %d: block line %d width = %d: %q", cols, i, w, line)
			}
		}
	}
}

func TestFrame_HeightNeverExceedsRows(t *testing.T) {
	snap := testSnapshot()
	for i := range snap.Tabs {
		snap.Tabs[i].Expanded = true
	}
	for _, rows := range []int{1, 4, 8, 12, 24, 50} {
		in := Input{Snapshot: snap, Cursor: nav.Cursor{Tab: 0, Window: -1}, Previews: previews(60), Rows: rows, Cols: 80, Styles: PlainStyles()}
		if got := len(Frame(in)); got > rows {
			t.Errorf("rows %d: frame has %d lines", rows, got)
		}
	}
}

func TestFrame_BottomAligned(t *testing.T) {
	in := Input{
		Snapshot: testSnapshot(),
		Cursor:   nav.Cursor{Tab: 1, Window: -1},
		Previews: previews(30),
		Rows:     24,
		Cols:     80,
		Styles:   PlainStyles(),
	}
	frame := Frame(in)
	// 3 entries, 8 blanks, top border, 10 rows, bottom border: one line left for kitty's tab bar.
	if len(frame) != 23 {
		t.Fatalf("frame has %d lines, want 23", len(frame))
	}
	for i := 3; i < 11; i++ {
		if frame[i] != "" {
			t.Errorf("line %d = %q, want blank", i, frame[i])
		}
	}
	if !strings.HasPrefix(frame[11], "┌") {
		t.Errorf("line 11 = %q, want top border", frame[11])
	}
}

func TestFrame_RowsStopAtShortestPreview(t *testing.T) {
	prev := previews(30)
	prev[111] = prev[111][:3]
	in := Input{Snapshot: testSnapshot(), Cursor: nav.Cursor{Tab: 1, Window: -1}, Previews: prev, Rows: 24, Cols: 80, Styles: PlainStyles()}
	frame := Frame(in)
	rows := 0
	for _, l := range frame {
		if strings.HasPrefix(l, "│") {
			rows++
		}
	}
	if rows != 3 {
		t.Errorf("preview rows = %d, want 3", rows)
	}
}

func TestFrame_WindowSelectionShowsOnePane(t *testing.T) {
	snap := testSnapshot()
	snap.Tabs[2].Expanded = true
	in := Input{Snapshot: snap, Cursor: nav.Cursor{Tab: 2, Window: 1, Kind: nav.EntryWindow}, Previews: previews(30), Rows: 30, Cols: 60, Styles: PlainStyles()}
	frame := Frame(in)
	top := frame[len(frame)-PaneHeight(30)-2]
	if top != "┌"+strings.Repeat("─", 58)+"┐" {
		t.Errorf("top border = %q", top)
	}
	row := frame[len(frame)-PaneHeight(30)-1]
	if !strings.Contains(row, "window 121") {
		t.Errorf("row should show the selected window: %q", row)
	}
}

func TestFrame_RowFormat(t *testing.T) {
	snap := &model.Snapshot{Tabs: []model.Tab{{ID: 1, IsActive: true, Windows: []model.Window{{ID: 1}, {ID: 2}}}}}
	prev := map[int64][]ansi.Text{1: {ansi.Parse("ab")}, 2: {ansi.Parse("cd")}}
	in := Input{Snapshot: snap, Previews: prev, Rows: 10, Cols: 11, Styles: PlainStyles()}
	frame := Frame(in)
	// widths: (11-3)/2 = 4 and 4.
	want := "│ ab\x1b[0m │ cd \x1b[0m│"
	if frame[len(frame)-2] != want {
		t.Errorf("row = %q, want %q", frame[len(frame)-2], want)
	}
}

func TestFrame_NeverWiderThanCols(t *testing.T) {
	for cols := 1; cols <= 120; cols++ {
		in := Input{
			Snapshot: testSnapshot(),
			Cursor:   nav.Cursor{Tab: 2, Window: -1, Kind: nav.EntryTab},
			Previews: previews(30),
			Rows:     24,
			Cols:     cols,
			Styles:   PlainStyles(),
		}
		for i, line := range Frame(in) {
			if w := width(line); w > cols {
				t.Fatalf("cols %d: line %d width = %d: %q", cols, i, w, line)
			}
		}
	}
}

func TestFrame_TooNarrowForPanesShowsEntriesOnly(t *testing.T) {
	// 3 panes need 3*3+4 = 13 columns.
	for _, tt := range []struct {
		cols  int
		panes bool
	}{{12, false}, {13, true}} {
		in := Input{
			Snapshot: testSnapshot(),
			Cursor:   nav.Cursor{Tab: 2, Window: -1, Kind: nav.EntryTab},
			Previews: previews(30),
			Rows:     24,
			Cols:     tt.cols,
			Styles:   PlainStyles(),
		}
		frame := Frame(in)
		if got := len(frame) > 3; got != tt.panes {
			t.Errorf("cols %d: panes shown = %v, want %v (%d lines)", tt.cols, got, tt.panes, len(frame))
		}
	}
}
