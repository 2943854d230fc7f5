package protocol

import (
	"errors"

	"github.com/timvw/kitty-mux/internal/mux"
)

// ErrUnexpectedResponse is returned when a response arrives while no request
// is waiting for one.
var ErrUnexpectedResponse = errors.New("unexpected response: no request in flight")

// ProtocolError is a fatal failure reported by kitty or by the channel.
type ProtocolError struct {
	Message   string
	Traceback string

	// Err is the underlying cause for failures that did not come from an
	// error response, such as mux.ErrChannelClosed.
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Traceback != "" {
		return e.Message + "\n" + e.Traceback
	}
	return e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func responseError(resp mux.Response) *ProtocolError {
	msg := resp.Error
	if msg == "" {
		msg = "kitty reported an error without a message"
	}
	return &ProtocolError{Message: msg, Traceback: resp.Traceback}
}

// ClosedError wraps a channel termination cause into a ProtocolError.
func ClosedError(cause error) *ProtocolError {
	if cause == nil {
		cause = mux.ErrChannelClosed
	}
	return &ProtocolError{Message: cause.Error(), Err: cause}
}
