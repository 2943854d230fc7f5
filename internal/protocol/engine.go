// Package protocol pipelines remote control requests over a single kitty
// channel and turns the responses into snapshot and preview updates.
//
// kitty answers requests in the order they were written and the wire carries
// no request ids, so the engine keeps one in-flight intent per outstanding
// request and matches every response to the oldest one. The engine is not
// safe for concurrent use; the switcher drives it from its event loop.
package protocol

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/ansi"
	"github.com/timvw/kitty-mux/internal/logx"
	"github.com/timvw/kitty-mux/internal/model"
	"github.com/timvw/kitty-mux/internal/mux"
	"github.com/timvw/kitty-mux/internal/otel"
)

// Sender writes one request to the control channel.
type Sender interface {
	Send(req mux.Request) error
}

// Intent records why a request was sent, so its response can be dispatched.
type Intent interface {
	// Command returns the wire command the intent was sent as.
	Command() string
	isIntent()
}

// ListIntent awaits an ls response.
type ListIntent struct{}

// PreviewIntent awaits the get-text response of one window.
type PreviewIntent struct {
	OSWindowID int64
	TabID      int64
	WindowID   int64
}

func (ListIntent) Command() string    { return mux.CmdList }
func (PreviewIntent) Command() string { return mux.CmdGetText }
func (ListIntent) isIntent()          {}
func (PreviewIntent) isIntent()       {}

// EventKind says what a dispatched response changed.
type EventKind int

const (
	// EventSnapshot means a new snapshot replaced the previous one.
	EventSnapshot EventKind = iota + 1
	// EventPreview means the preview of Event.WindowID was updated.
	EventPreview
)

// Event is the observable effect of one response.
type Event struct {
	Kind     EventKind
	WindowID int64
}

// Options configure an Engine.
type Options struct {
	Logger    pslog.Logger
	Telemetry *otel.Telemetry

	// KeepLayout leaves the active tab's layout alone. By default the engine
	// switches it to the stack layout while the switcher is open.
	KeepLayout bool
}

type layoutRestore struct {
	tabID  int64
	layout string
}

type inflight struct {
	intent Intent
	span   trace.Span
}

// Engine owns the request queue, the current snapshot and the preview cache.
type Engine struct {
	ctx    context.Context
	sender Sender
	opts   Options
	log    pslog.Logger
	tracer trace.Tracer
	meter  *otel.Metrics

	queue    []inflight
	snapshot *model.Snapshot
	restore  *layoutRestore
	previews *PreviewCache
	err      error
}

// New creates an engine writing to sender.
func New(ctx context.Context, sender Sender, opts Options) *Engine {
	tel := opts.Telemetry
	if tel == nil {
		tel = otel.Disabled()
	}
	log := opts.Logger
	if log == nil {
		log = logx.Ctx(ctx)
	}
	return &Engine{
		ctx:      ctx,
		sender:   sender,
		opts:     opts,
		log:      log,
		tracer:   tel.Tracer,
		meter:    tel.Metrics,
		previews: NewPreviewCache(),
	}
}

// Start requests the window listing. Calling it again relists; the snapshot
// is replaced when the response arrives.
func (e *Engine) Start() error {
	return e.send(mux.ListRequest(), ListIntent{})
}

// FocusWindow asks kitty to focus a window. No response is expected.
func (e *Engine) FocusWindow(windowID int64) error {
	if e.err != nil {
		return e.err
	}
	logx.WithWindow(e.log, windowID).Info("focusing window")
	return e.send(mux.FocusWindowRequest(windowID), nil)
}

// RestoreLayout puts back the layout changed on entry, if any. It is best
// effort: the request is sent even after a failure and is not awaited.
func (e *Engine) RestoreLayout() error {
	r := e.restore
	if r == nil {
		return nil
	}
	e.restore = nil
	logx.WithTab(e.log, r.tabID).With("layout", r.layout).Debug("restoring layout")
	req := mux.GotoLayoutRequest(r.tabID, r.layout)
	if err := e.sender.Send(req); err != nil {
		return fmt.Errorf("restoring layout of tab %d: %w", r.tabID, err)
	}
	e.meter.RecordRequest(e.ctx, req.Cmd)
	return nil
}

// OnResponse dispatches resp to the oldest in-flight intent.
func (e *Engine) OnResponse(resp mux.Response) (Event, error) {
	if e.err != nil {
		return Event{}, e.err
	}
	if len(e.queue) == 0 {
		e.meter.RecordError(e.ctx, "unexpected_response")
		return Event{}, e.fail(ErrUnexpectedResponse)
	}
	head := e.queue[0]
	e.queue[0] = inflight{}
	e.queue = e.queue[1:]

	cmd := head.intent.Command()
	e.meter.RecordResponse(e.ctx, cmd, resp.OK)
	if !resp.OK {
		head.span.SetStatus(codes.Error, resp.Error)
		head.span.End()
		e.meter.RecordError(e.ctx, "error_response")
		return Event{}, e.fail(responseError(resp))
	}
	head.span.End()

	switch in := head.intent.(type) {
	case ListIntent:
		return e.onList(resp)
	case PreviewIntent:
		return e.onPreview(in, resp), nil
	default:
		return Event{}, e.fail(fmt.Errorf("unknown intent %T", in))
	}
}

// OnClosed records the end of the channel. Any termination is fatal.
func (e *Engine) OnClosed(cause error) error {
	e.meter.RecordError(e.ctx, "channel_closed")
	return e.fail(ClosedError(cause))
}

// Err returns the failure that stopped the engine, or nil.
func (e *Engine) Err() error {
	return e.err
}

// Snapshot returns the current snapshot, nil before the first listing.
func (e *Engine) Snapshot() *model.Snapshot {
	return e.snapshot
}

// Previews returns the preview cache.
func (e *Engine) Previews() *PreviewCache {
	return e.previews
}

// Preview returns the cached lines of a window.
func (e *Engine) Preview(windowID int64) ([]ansi.Text, bool) {
	return e.previews.Lookup(windowID)
}

// Pending returns the in-flight intents, oldest first.
func (e *Engine) Pending() []Intent {
	out := make([]Intent, len(e.queue))
	for i, p := range e.queue {
		out[i] = p.intent
	}
	return out
}

// LayoutChanged reports the tab whose layout was switched on entry.
func (e *Engine) LayoutChanged() (tabID int64, layout string, ok bool) {
	if e.restore == nil {
		return 0, "", false
	}
	return e.restore.tabID, e.restore.layout, true
}

func (e *Engine) onList(resp mux.Response) (Event, error) {
	windows, err := model.ParseListing([]byte(resp.Text()))
	if err != nil {
		return Event{}, e.fail(&ProtocolError{Message: err.Error(), Err: err})
	}
	snap, err := model.NewSnapshot(windows)
	if err != nil {
		return Event{}, e.fail(&ProtocolError{Message: err.Error(), Err: err})
	}
	e.snapshot = snap
	e.log.Info("listing received", "tabs", snap.Len(), "windows", snap.WindowCount())

	if active := snap.Tab(snap.ActiveTabIndex()); active != nil && !e.opts.KeepLayout {
		if err := e.fixLayout(active); err != nil {
			return Event{}, err
		}
	}

	for _, tab := range snap.Tabs {
		for _, w := range tab.Windows {
			intent := PreviewIntent{OSWindowID: snap.OSWindowID, TabID: tab.ID, WindowID: w.ID}
			if err := e.send(mux.GetTextRequest(w.ID, true), intent); err != nil {
				return Event{}, err
			}
		}
	}
	return Event{Kind: EventSnapshot}, nil
}

// fixLayout switches the active tab to the stack layout so the switcher's
// overlay window fills it. The first layout seen is the one restored.
func (e *Engine) fixLayout(tab *model.Tab) error {
	if !tab.IsActive || tab.Layout == model.LayoutStack || e.restore != nil {
		return nil
	}
	e.restore = &layoutRestore{tabID: tab.ID, layout: tab.Layout}
	logx.WithTab(e.log, tab.ID).With("layout", tab.Layout).Debug("switching active tab to stack layout")
	return e.send(mux.GotoLayoutRequest(tab.ID, model.LayoutStack), nil)
}

func (e *Engine) onPreview(in PreviewIntent, resp mux.Response) Event {
	deduped := e.previews.Store(in.WindowID, resp.Text())
	e.meter.RecordPreview(e.ctx, deduped)
	logx.WithWindow(logx.WithTab(e.log, in.TabID), in.WindowID).Debug("preview updated", "deduped", deduped)
	return Event{Kind: EventPreview, WindowID: in.WindowID}
}

// send writes req and, for a non-nil intent, queues it for the response.
func (e *Engine) send(req mux.Request, intent Intent) error {
	if e.err != nil {
		return e.err
	}
	if err := e.sender.Send(req); err != nil {
		logx.WithRequest(e.log, req.Cmd).Error("send failed", "err", err)
		e.meter.RecordError(e.ctx, "send")
		if errors.Is(err, mux.ErrChannelClosed) {
			return e.fail(ClosedError(err))
		}
		return e.fail(&ProtocolError{Message: err.Error(), Err: err})
	}
	e.meter.RecordRequest(e.ctx, req.Cmd)
	if intent == nil {
		return nil
	}
	_, span := e.tracer.Start(e.ctx, "protocol.request",
		trace.WithAttributes(attribute.String("rc.command", req.Cmd)))
	e.queue = append(e.queue, inflight{intent: intent, span: span})
	return nil
}

func (e *Engine) fail(err error) error {
	if e.err != nil {
		return e.err
	}
	e.err = err
	e.log.Error("protocol failure", "err", err)
	for _, p := range e.queue {
		p.span.SetStatus(codes.Error, "abandoned")
		p.span.End()
	}
	e.queue = nil
	return err
}
