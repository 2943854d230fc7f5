package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timvw/kitty-mux/internal/model"
	"github.com/timvw/kitty-mux/internal/mux"
)

// fakeMux records the requests it receives.
type fakeMux struct {
	windows []model.OSWindow
	text    string
	err     error

	gotText   []int64
	gotANSI   bool
	gotFocus  []int64
	gotLayout []string
}

var _ mux.Multiplexer = (*fakeMux)(nil)

func (f *fakeMux) Name() string { return "fake" }
func (f *fakeMux) Close() error { return nil }

func (f *fakeMux) List(context.Context) ([]model.OSWindow, error) {
	return f.windows, f.err
}

func (f *fakeMux) GetText(_ context.Context, id int64, ansi bool) (string, error) {
	f.gotText = append(f.gotText, id)
	f.gotANSI = ansi
	return f.text, f.err
}

func (f *fakeMux) GotoLayout(_ context.Context, tabID int64, layout string) error {
	f.gotLayout = append(f.gotLayout, mux.MatchID(tabID)+" "+layout)
	return f.err
}

func (f *fakeMux) FocusWindow(_ context.Context, id int64) error {
	f.gotFocus = append(f.gotFocus, id)
	return f.err
}

func sampleWindows() []model.OSWindow {
	integrated := map[string]string{model.ShellIntegrationEnv: "enabled"}
	return []model.OSWindow{{IsActive: true, Tabs: []model.Tab{
		{ID: 1, Title: "code", Layout: "tall", IsActive: true, Windows: []model.Window{
			{ID: 10, Title: "vim", Cwd: "/src", Env: integrated, IsActive: true, IsFocused: true,
				ForegroundProcesses: []model.Process{{PID: 1, Cmdline: []string{"vim"}}}},
		}},
	}}}
}

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"id:7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"id:", 0, true},
		{"vim", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseWindowID(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWindowID(%q): error = %v, wantErr = %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseWindowID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestPrintListing(t *testing.T) {
	integrated := map[string]string{model.ShellIntegrationEnv: "enabled"}
	windows := []model.OSWindow{{IsActive: true, Tabs: []model.Tab{
		{ID: 1, Title: "code", Layout: "tall", IsActive: true, Windows: []model.Window{
			{ID: 10, Title: "vim", Cwd: "/src", Env: integrated, IsActive: true},
			{ID: 11, Title: "raw", Cwd: "/tmp"},
		}},
		{ID: 2, Title: "logs", Layout: "stack"},
	}}}

	tests := []struct {
		name string
		all  bool
		want string
	}{
		{"integrated only", false, "* tab 1: code [tall]\n  * 10\tvim\t/src\n  tab 2: logs [stack]\n"},
		{"all", true, "* tab 1: code [tall]\n  * 10\tvim\t/src\n    11\traw\t/tmp\n  tab 2: logs [stack]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printListing(&buf, windows, tt.all); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("printListing =\n%q\nwant\n%q", buf.String(), tt.want)
			}
		})
	}

	if err := printListing(&bytes.Buffer{}, nil, false); err == nil {
		t.Error("expected error for empty listing")
	}
}

func TestRunList(t *testing.T) {
	f := &fakeMux{windows: sampleWindows()}
	var buf bytes.Buffer
	if err := runList(context.Background(), f, &buf, false, false); err != nil {
		t.Fatal(err)
	}
	if want := "* tab 1: code [tall]\n  * 10\tvim\t/src\n"; buf.String() != want {
		t.Errorf("runList = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := runList(context.Background(), f, &buf, false, true); err != nil {
		t.Fatal(err)
	}
	var decoded []model.OSWindow
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("--json output is not a listing: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Tabs[0].Windows[0].ID != 10 {
		t.Errorf("decoded listing = %+v", decoded)
	}

	boom := errors.New("boom")
	if err := runList(context.Background(), &fakeMux{err: boom}, &buf, false, false); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestRunCapture(t *testing.T) {
	f := &fakeMux{text: "$ ls\n"}
	var buf bytes.Buffer
	if err := runCapture(context.Background(), f, &buf, 10, true); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "$ ls\n" {
		t.Errorf("output = %q", buf.String())
	}
	if len(f.gotText) != 1 || f.gotText[0] != 10 || !f.gotANSI {
		t.Errorf("GetText calls = %v ansi=%v", f.gotText, f.gotANSI)
	}

	f.err = errors.New("no such window")
	if err := runCapture(context.Background(), f, &buf, 99, false); err == nil || !strings.Contains(err.Error(), "window 99") {
		t.Errorf("err = %v", err)
	}
}

func TestRunFocus(t *testing.T) {
	f := &fakeMux{}
	if err := runFocus(context.Background(), f, 7); err != nil {
		t.Fatal(err)
	}
	if len(f.gotFocus) != 1 || f.gotFocus[0] != 7 {
		t.Errorf("FocusWindow calls = %v", f.gotFocus)
	}
}

func TestRunLayout(t *testing.T) {
	f := &fakeMux{}
	if err := runLayout(context.Background(), f, 3, model.LayoutStack); err != nil {
		t.Fatal(err)
	}
	if len(f.gotLayout) != 1 || f.gotLayout[0] != "id:3 stack" {
		t.Errorf("GotoLayout calls = %v", f.gotLayout)
	}

	f.err = errors.New("closed")
	if err := runLayout(context.Background(), f, 3, model.LayoutTall); err == nil || !strings.Contains(err.Error(), "tab 3") {
		t.Errorf("err = %v", err)
	}
}

func TestCheckLayout(t *testing.T) {
	for _, name := range layoutNames {
		if err := checkLayout(name); err != nil {
			t.Errorf("checkLayout(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "Stack", "tabbed"} {
		if err := checkLayout(name); err == nil {
			t.Errorf("checkLayout(%q) expected error", name)
		}
	}
}

func TestParseID_Kind(t *testing.T) {
	_, err := parseID("tab", "x")
	if err == nil || !strings.Contains(err.Error(), "invalid tab id") {
		t.Errorf("err = %v", err)
	}
}

func TestRunSession(t *testing.T) {
	f := &fakeMux{windows: sampleWindows()}
	want := "\nnew_tab code\nlayout tall\ntitle vim\ncd /src\nlaunch --env KITTY_SHELL_INTEGRATION=enabled vim\nfocus\n"

	var buf bytes.Buffer
	if err := runSession(context.Background(), f, &buf, ""); err != nil {
		t.Fatal(err)
	}
	if buf.String() != want {
		t.Errorf("stdout session =\n%q\nwant\n%q", buf.String(), want)
	}

	path := filepath.Join(t.TempDir(), "nested", "kitty-session")
	buf.Reset()
	if err := runSession(context.Background(), f, &buf, path); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("saving also printed %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != want {
		t.Errorf("saved session =\n%q\nwant\n%q", data, want)
	}
}
