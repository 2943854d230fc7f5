package mux

import (
	"context"
	"fmt"
	"sync"

	"github.com/timvw/kitty-mux/internal/model"
)

// Kitty implements the Multiplexer interface over a remote control Channel.
// Calls are serialized: each waits for its own response before the next
// request is written, so responses never need correlating.
type Kitty struct {
	mu sync.Mutex
	ch *Channel
}

// NewKitty wraps an open channel. The Kitty takes ownership of ch.
func NewKitty(ch *Channel) *Kitty {
	return &Kitty{ch: ch}
}

// DialKitty connects to addr (or $KITTY_LISTEN_ON) and returns a Kitty.
func DialKitty(ctx context.Context, addr, password string) (*Kitty, error) {
	ch, err := DialChannel(ctx, addr, password)
	if err != nil {
		return nil, err
	}
	return NewKitty(ch), nil
}

// DialChannel connects to addr (or $KITTY_LISTEN_ON), encrypting requests
// when password is set.
func DialChannel(ctx context.Context, addr, password string) (*Channel, error) {
	addr, err := ResolveAddress(addr)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncrypter(password)
	if err != nil {
		return nil, err
	}
	return Dial(ctx, addr, enc)
}

// Name returns "kitty".
func (k *Kitty) Name() string {
	return "kitty"
}

// Close closes the underlying channel.
func (k *Kitty) Close() error {
	return k.ch.Close()
}

// List returns every OS window with its tabs and windows.
func (k *Kitty) List(ctx context.Context) ([]model.OSWindow, error) {
	resp, err := k.call(ctx, ListRequest())
	if err != nil {
		return nil, err
	}
	return model.ParseListing([]byte(resp.Text()))
}

// GetText captures the visible screen of a window.
func (k *Kitty) GetText(ctx context.Context, windowID int64, ansi bool) (string, error) {
	resp, err := k.call(ctx, GetTextRequest(windowID, ansi))
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GotoLayout switches a tab's layout without waiting for kitty.
func (k *Kitty) GotoLayout(ctx context.Context, tabID int64, layout string) error {
	return k.notify(ctx, GotoLayoutRequest(tabID, layout))
}

// FocusWindow focuses a window without waiting for kitty.
func (k *Kitty) FocusWindow(ctx context.Context, windowID int64) error {
	return k.notify(ctx, FocusWindowRequest(windowID))
}

func (k *Kitty) notify(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ch.Send(req)
}

func (k *Kitty) call(ctx context.Context, req Request) (Response, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.ch.Send(req); err != nil {
		return Response{}, err
	}
	select {
	case resp, ok := <-k.ch.Responses():
		if !ok {
			return Response{}, k.ch.Err()
		}
		if err := ResponseError(resp); err != nil {
			return Response{}, fmt.Errorf("kitty %s: %w", req.Cmd, err)
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}
