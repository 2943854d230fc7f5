package mux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ListenEnv is the variable kitty exports when remote control listens on a socket.
const ListenEnv = "KITTY_LISTEN_ON"

var (
	// ErrChannelClosed is reported when the connection to kitty ends.
	ErrChannelClosed = errors.New("control channel closed")

	// ErrNoListenAddress is returned when neither --to nor $KITTY_LISTEN_ON is set.
	ErrNoListenAddress = errors.New("no kitty control address: pass --to or run inside kitty with listen_on configured")
)

// Channel is one connection to kitty's remote control socket. Writes happen
// on the caller's goroutine; a single reader goroutine decodes response
// frames and delivers them, in order, on Responses.
type Channel struct {
	conn net.Conn
	enc  Encrypter

	wmu sync.Mutex
	w   *bufio.Writer

	responses chan Response
	quit      chan struct{}
	done      chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Dial connects to a kitty control address. Supported forms are
// "unix:/path", "unix:@abstract", "tcp:host:port" and "fd:N".
func Dial(ctx context.Context, addr string, enc Encrypter) (*Channel, error) {
	conn, err := dialAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	return NewChannel(conn, enc), nil
}

// NewChannel starts the reader goroutine on an established connection. A nil
// enc means NoEncryption.
func NewChannel(conn net.Conn, enc Encrypter) *Channel {
	if enc == nil {
		enc = NoEncryption{}
	}
	c := &Channel{
		conn:      conn,
		enc:       enc,
		w:         bufio.NewWriter(conn),
		responses: make(chan Response, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Send encodes, frames and flushes one request.
func (c *Channel) Send(req Request) error {
	wire, err := c.enc.Wrap(req)
	if err != nil {
		return fmt.Errorf("wrapping %s: %w", req.Cmd, err)
	}
	frame, err := EncodeFrame(wire)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.isClosed() {
		return ErrChannelClosed
	}
	if _, err := c.w.Write(frame); err != nil {
		return fmt.Errorf("sending %s: %w", req.Cmd, err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("sending %s: %w", req.Cmd, err)
	}
	return nil
}

// Responses delivers decoded responses in arrival order. It is closed when
// the connection ends; Err then reports why.
func (c *Channel) Responses() <-chan Response {
	return c.responses
}

// Err returns the reason the reader stopped. It wraps ErrChannelClosed for
// any termination, including a clean EOF.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts down the connection and waits for the reader to exit.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.quit)
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) readLoop() {
	defer close(c.done)
	defer close(c.responses)

	fr := NewFrameReader(c.conn)
	for {
		body, err := fr.Next()
		if err != nil {
			c.fail(err)
			return
		}
		resp, err := DecodeResponse(body)
		if err != nil {
			c.fail(err)
			return
		}
		select {
		case c.responses <- resp:
		case <-c.quit:
			c.fail(net.ErrClosed)
			return
		}
	}
}

func (c *Channel) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		c.err = ErrChannelClosed
	default:
		c.err = fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
}

// ResolveAddress returns addr, or $KITTY_LISTEN_ON when addr is empty.
func ResolveAddress(addr string) (string, error) {
	if addr == "" {
		addr = os.Getenv(ListenEnv)
	}
	if addr == "" {
		return "", ErrNoListenAddress
	}
	return addr, nil
}

func dialAddress(ctx context.Context, addr string) (net.Conn, error) {
	scheme, rest, ok := strings.Cut(addr, ":")
	if !ok {
		return nil, fmt.Errorf("invalid kitty address %q: missing scheme", addr)
	}
	var d net.Dialer
	switch scheme {
	case "unix":
		// A leading '@' selects the Linux abstract namespace; net handles it.
		conn, err := d.DialContext(ctx, "unix", rest)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		}
		return conn, nil
	case "tcp":
		conn, err := d.DialContext(ctx, "tcp", rest)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		}
		return conn, nil
	case "fd":
		fd, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid kitty address %q: %w", addr, err)
		}
		f := os.NewFile(uintptr(fd), "kitty-rc")
		if f == nil {
			return nil, fmt.Errorf("invalid file descriptor %d", fd)
		}
		defer f.Close()
		conn, err := net.FileConn(f)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported kitty address scheme %q", scheme)
	}
}
