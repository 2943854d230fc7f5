package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/logx"
	"github.com/timvw/kitty-mux/internal/mux"
	telem "github.com/timvw/kitty-mux/internal/otel"
	"github.com/timvw/kitty-mux/internal/switcher"
)

func runSwitcher(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Load configuration: defaults -> config file -> env vars -> flags.
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The switcher owns the terminal: log to a file or not at all.
	logger, closer, err := logx.OpenFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx = pslog.ContextWithLogger(ctx, logger)

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured)
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		logger.Warn("otel init failed", "err", err)
		tel = telem.Disabled()
	}
	defer tel.Shutdown(context.WithoutCancel(ctx))

	if err := mux.Supported(flagMux); err != nil {
		return err
	}

	dialCtx, dialCancel := dialContext(ctx, cfg)
	ch, err := mux.DetectChannel(dialCtx, muxOptions(cfg))
	dialCancel()
	if err != nil {
		return fmt.Errorf("connecting to kitty: %w", err)
	}
	defer ch.Close()

	sw := &switcher.Switcher{
		Conn:       ch,
		Logger:     logger,
		Telemetry:  tel,
		Theme:      cfg.Theme,
		MaxPanes:   cfg.MaxPanes,
		KeepLayout: cfg.KeepLayout(),
	}
	outcome, err := sw.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if outcome.FocusWindow != 0 {
		logx.WithWindow(logger, outcome.FocusWindow).Info("switched")
	} else {
		logger.Info("closed without switching")
	}
	return nil
}
