// Package logx builds the pslog loggers used by kitty-mux and annotates them
// with remote control identifiers.
package logx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Ctx returns the logger bound to ctx.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// Console returns the stderr logger used by the non-interactive commands.
// PSLOG_* environment variables override the defaults.
func Console(level string) pslog.Logger {
	return pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(consoleOptions(level)),
	)
}

func consoleOptions(level string) pslog.Options {
	opts := levelOptions(level)
	opts.Mode = pslog.ModeConsole
	return opts
}

// New returns a structured logger writing JSON lines to w.
func New(w io.Writer, level string) pslog.Logger {
	opts := levelOptions(level)
	opts.Mode = pslog.ModeStructured
	opts.NoColor = true
	opts.VerboseFields = true
	return pslog.NewWithOptions(w, opts)
}

// OpenFile returns a structured logger appending to path. The switcher owns
// the terminal, so an empty path yields a logger that discards everything.
func OpenFile(path, level string) (pslog.Logger, io.Closer, error) {
	if path == "" {
		return New(io.Discard, level), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return New(f, level), f, nil
}

func levelOptions(level string) pslog.Options {
	opts := pslog.Options{MinLevel: pslog.InfoLevel}
	switch strings.ToLower(level) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "warn", "warning":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	return opts
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithWindow annotates the logger with a kitty window id.
func WithWindow(log pslog.Logger, windowID int64) pslog.Logger {
	if windowID != 0 {
		log = log.With("window", windowID)
	}
	return log
}

// WithTab annotates the logger with a kitty tab id.
func WithTab(log pslog.Logger, tabID int64) pslog.Logger {
	if tabID != 0 {
		log = log.With("tab", tabID)
	}
	return log
}

// WithRequest annotates the logger with a remote control command name.
func WithRequest(log pslog.Logger, cmd string) pslog.Logger {
	if cmd != "" {
		log = log.With("cmd", cmd)
	}
	return log
}
