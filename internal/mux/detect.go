package mux

import (
	"context"
	"fmt"
	"os"
)

// Options select and authenticate the control connection.
type Options struct {
	// Address in kitty's listen_on syntax. Empty means $KITTY_LISTEN_ON.
	Address  string
	Password string
}

// Detect connects to the kitty instance the process runs under.
// It requires $KITTY_LISTEN_ON unless opts.Address is set.
func Detect(ctx context.Context, opts Options) (Multiplexer, error) {
	if err := checkListening(opts); err != nil {
		return nil, err
	}
	k, err := DialKitty(ctx, opts.Address, opts.Password)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// DetectChannel is Detect for callers that pipeline requests themselves.
func DetectChannel(ctx context.Context, opts Options) (*Channel, error) {
	if err := checkListening(opts); err != nil {
		return nil, err
	}
	return DialChannel(ctx, opts.Address, opts.Password)
}

func checkListening(opts Options) error {
	if opts.Address != "" || os.Getenv(ListenEnv) != "" {
		return nil
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return fmt.Errorf("%w (running inside kitty, but remote control is not listening on a socket)", ErrNoListenAddress)
	}
	return ErrNoListenAddress
}

// FromName creates a Multiplexer by name.
func FromName(ctx context.Context, name string, opts Options) (Multiplexer, error) {
	if err := Supported(name); err != nil {
		return nil, err
	}
	return Detect(ctx, opts)
}

// Supported reports whether name selects a multiplexer kitty-mux can drive.
// The empty name selects kitty.
func Supported(name string) error {
	switch name {
	case "", "kitty":
		return nil
	case "tmux", "zellij":
		return fmt.Errorf("%s is not supported: kitty-mux drives kitty's remote control protocol", name)
	default:
		return fmt.Errorf("unknown multiplexer: %q (supported: kitty)", name)
	}
}
