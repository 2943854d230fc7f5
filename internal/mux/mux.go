// Package mux talks to the terminal multiplexer (kitty) over its remote
// control channel.
//
// The channel carries framed JSON requests and responses on a single
// connection. This package is pure transport: it encodes requests, decodes
// responses and never interprets window contents.
package mux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/timvw/kitty-mux/internal/model"
)

// Wire command names.
const (
	CmdList        = "ls"
	CmdGetText     = "get-text"
	CmdGotoLayout  = "goto-layout"
	CmdFocusWindow = "focus-window"
)

// ProtocolVersion is the kitty version sent with every request. kitty uses
// it only for compatibility checks.
var ProtocolVersion = [3]int{0, 35, 2}

// Multiplexer abstracts the synchronous multiplexer operations used by the
// non-interactive commands. Close releases the control connection.
type Multiplexer interface {
	io.Closer

	// Name returns the multiplexer name (e.g., "kitty").
	Name() string

	// List returns the full OS window / tab / window tree.
	List(ctx context.Context) ([]model.OSWindow, error)

	// GetText captures the screen contents of a window, with escape codes
	// when ansi is true.
	GetText(ctx context.Context, windowID int64, ansi bool) (string, error)

	// GotoLayout switches a tab to the named layout. kitty sends no reply.
	GotoLayout(ctx context.Context, tabID int64, layout string) error

	// FocusWindow focuses a window. kitty sends no reply.
	FocusWindow(ctx context.Context, windowID int64) error
}

var _ Multiplexer = (*Kitty)(nil)

// Request is one remote control command.
type Request struct {
	Cmd        string `json:"cmd"`
	Version    [3]int `json:"version"`
	NoResponse bool   `json:"no_response,omitempty"`
	Payload    any    `json:"payload,omitempty"`

	// Set by PasswordEncrypter before encryption.
	Timestamp int64  `json:"timestamp,omitempty"`
	Password  string `json:"password,omitempty"`
}

// NewRequest builds a request for the current protocol version.
func NewRequest(cmd string, payload any, expectResponse bool) Request {
	return Request{
		Cmd:        cmd,
		Version:    ProtocolVersion,
		NoResponse: !expectResponse,
		Payload:    payload,
	}
}

// Response is kitty's reply to a request.
type Response struct {
	OK        bool            `json:"ok"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Traceback string          `json:"tb,omitempty"`
}

// Text returns Data as a string. kitty encodes most results (including the
// "ls" JSON document) as a JSON string; other values are returned raw.
func (r Response) Text() string {
	if len(r.Data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s
	}
	return string(r.Data)
}

// GetTextPayload is the payload of a get-text request.
type GetTextPayload struct {
	Match string `json:"match"`
	ANSI  bool   `json:"ansi"`
}

// GotoLayoutPayload is the payload of a goto-layout request.
type GotoLayoutPayload struct {
	Match  string `json:"match"`
	Layout string `json:"layout"`
}

// FocusWindowPayload is the payload of a focus-window request.
type FocusWindowPayload struct {
	Match string `json:"match"`
}

// MatchID returns a kitty match expression selecting a window or tab by id.
func MatchID(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

// ListRequest returns an "ls" request.
func ListRequest() Request {
	return NewRequest(CmdList, nil, true)
}

// GetTextRequest returns a get-text request for a window.
func GetTextRequest(windowID int64, ansi bool) Request {
	return NewRequest(CmdGetText, GetTextPayload{Match: MatchID(windowID), ANSI: ansi}, true)
}

// GotoLayoutRequest returns a fire-and-forget goto-layout request for a tab.
func GotoLayoutRequest(tabID int64, layout string) Request {
	return NewRequest(CmdGotoLayout, GotoLayoutPayload{Match: MatchID(tabID), Layout: layout}, false)
}

// FocusWindowRequest returns a fire-and-forget focus-window request.
func FocusWindowRequest(windowID int64) Request {
	return NewRequest(CmdFocusWindow, FocusWindowPayload{Match: MatchID(windowID)}, false)
}

// ResponseError converts a failed response into an error.
func ResponseError(r Response) error {
	if r.OK {
		return nil
	}
	if r.Traceback != "" {
		return fmt.Errorf("%s\n%s", r.Error, r.Traceback)
	}
	return errors.New(r.Error)
}
