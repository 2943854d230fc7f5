// Package switcher runs the interactive tab/window switcher.
//
// A bubbletea program is the event loop. Key presses, channel responses and
// resizes all arrive as messages on the program's goroutine, which is the
// only goroutine touching the protocol engine and the cursor.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/logx"
	"github.com/timvw/kitty-mux/internal/mux"
	"github.com/timvw/kitty-mux/internal/nav"
	"github.com/timvw/kitty-mux/internal/otel"
	"github.com/timvw/kitty-mux/internal/protocol"
	"github.com/timvw/kitty-mux/internal/render"
)

// Conn is the control channel as seen by the switcher. *mux.Channel
// implements it.
type Conn interface {
	protocol.Sender
	Responses() <-chan mux.Response
	Err() error
}

// Outcome is how the switcher ended.
type Outcome struct {
	// FocusWindow is the window focused on exit, 0 when the switcher was
	// closed without switching.
	FocusWindow int64
}

// Switcher configures one interactive session.
type Switcher struct {
	Conn      Conn
	Logger    pslog.Logger
	Telemetry *otel.Telemetry
	Theme     string
	MaxPanes  int
	// KeepLayout leaves the active tab's layout alone while open.
	KeepLayout bool

	// Input and Output override the terminal, for tests.
	Input  io.Reader
	Output io.Writer
}

// messages
type responseMsg struct {
	resp mux.Response
}

type closedMsg struct {
	err error
}

type tuiModel struct {
	ctx      context.Context
	conn     Conn
	engine   *protocol.Engine
	state    *nav.State
	keys     KeyMap
	styles   render.Styles
	maxPanes int
	log      pslog.Logger

	width  int
	height int

	outcome  Outcome
	err      error
	quitting bool
}

func newModel(ctx context.Context, s *Switcher) *tuiModel {
	log := s.Logger
	if log == nil {
		log = logx.Ctx(ctx)
	}
	return &tuiModel{
		ctx:  ctx,
		conn: s.Conn,
		engine: protocol.New(ctx, s.Conn, protocol.Options{
			Logger:     log,
			Telemetry:  s.Telemetry,
			KeepLayout: s.KeepLayout,
		}),
		keys:     DefaultKeyMap(),
		styles:   render.NewStyles(render.ThemeByName(s.Theme)),
		maxPanes: s.MaxPanes,
		log:      log,
	}
}

// Run shows the switcher until the user picks an entry or cancels. A
// protocol failure is returned as a *protocol.ProtocolError.
func (s *Switcher) Run(ctx context.Context) (Outcome, error) {
	if s.Conn == nil {
		return Outcome{}, errors.New("switcher: no control channel")
	}
	m := newModel(ctx, s)

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if s.Input != nil {
		opts = append(opts, tea.WithInput(s.Input))
	}
	if s.Output != nil {
		opts = append(opts, tea.WithOutput(s.Output))
	}
	p := tea.NewProgram(m, opts...)
	_, err := p.Run()

	// No-op when the loop already restored it.
	if rerr := m.engine.RestoreLayout(); rerr != nil {
		m.log.Warn("layout restore failed", "err", rerr)
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return Outcome{}, fmt.Errorf("running switcher: %w", err)
	}
	return m.outcome, m.err
}

func (m *tuiModel) Init() tea.Cmd {
	m.log.Info("switcher start")
	if err := m.engine.Start(); err != nil {
		m.err = err
		return m.quit()
	}
	return waitResponse(m.conn)
}

// waitResponse blocks on the channel reader and delivers the next response.
func waitResponse(conn Conn) tea.Cmd {
	return func() tea.Msg {
		resp, ok := <-conn.Responses()
		if !ok {
			return closedMsg{err: conn.Err()}
		}
		return responseMsg{resp: resp}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.log.Debug("resize", "width", m.width, "height", m.height)
		return m, nil

	case responseMsg:
		if m.quitting {
			return m, nil
		}
		ev, err := m.engine.OnResponse(msg.resp)
		if err != nil {
			m.err = err
			return m, m.quit()
		}
		if ev.Kind == protocol.EventSnapshot {
			snap := m.engine.Snapshot()
			if m.state == nil {
				m.state = nav.NewState(snap)
			} else {
				m.state.Replace(snap)
			}
		}
		return m, waitResponse(m.conn)

	case closedMsg:
		if m.quitting {
			return m, nil
		}
		m.err = m.engine.OnClosed(msg.err)
		return m, m.quit()
	}

	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	if m.state != nil && m.keys.IsRefresh(msg) {
		if err := m.engine.Start(); err != nil {
			m.err = err
			return m, m.quit()
		}
		return m, nil
	}

	action := m.keys.Action(msg)
	if action == nav.None {
		return m, nil
	}
	if m.state == nil {
		// Nothing listed yet: only closing makes sense.
		if action == nav.Cancel {
			return m, m.quit()
		}
		return m, nil
	}

	res := m.state.Apply(action)
	if !res.Quit {
		return m, nil
	}
	cmd := m.quit()
	if res.FocusWindow != 0 {
		if err := m.engine.FocusWindow(res.FocusWindow); err != nil {
			m.err = err
			return m, cmd
		}
		m.outcome.FocusWindow = res.FocusWindow
	}
	return m, cmd
}

// quit is the single exit path: it restores the layout without waiting for
// kitty and stops the program.
func (m *tuiModel) quit() tea.Cmd {
	m.quitting = true
	if err := m.engine.RestoreLayout(); err != nil {
		m.log.Warn("layout restore failed", "err", err)
	}
	return tea.Quit
}

func (m *tuiModel) View() string {
	if m.quitting || m.state == nil {
		return ""
	}
	lines := render.Frame(render.Input{
		Snapshot: m.state.Snapshot(),
		Cursor:   m.state.Cursor,
		Previews: m.engine.Previews().All(),
		Rows:     m.height,
		Cols:     m.width,
		Styles:   m.styles,
		MaxPanes: m.maxPanes,
	})
	return strings.Join(lines, "\n")
}
