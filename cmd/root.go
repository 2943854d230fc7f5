package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/config"
	"github.com/timvw/kitty-mux/internal/logx"
	"github.com/timvw/kitty-mux/internal/mux"
)

// Version is set at build time with -ldflags "-X github.com/timvw/kitty-mux/cmd.Version=...".
var Version = "dev"

var (
	// Global flags.
	flagMux      string
	flagTo       string
	flagPassword string
	flagTheme    string
	flagLogFile  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kitty-mux",
	Short: "Tab and window switcher for the kitty terminal",
	Long: `kitty-mux is an overlay switcher for kitty tabs and windows.

It lists the tabs of the active OS window over kitty's remote control
channel, shows live previews of their windows and focuses the one you
pick. Only windows with shell integration are shown.

Remote control must listen on a socket (listen_on in kitty.conf, or
kitty --listen-on). Run it from a kitty overlay, for example:

  map ctrl+a launch --type=overlay kitty-mux`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitcher(cmd)
	},
}

// Execute runs the root command. Any failure exits with status 1 after
// printing the error, including kitty's traceback for protocol failures.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logx.Console("info")
	ctx = pslog.ContextWithLogger(ctx, logger)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "kitty-mux: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", "", "terminal multiplexer (only kitty is supported)")
	rootCmd.PersistentFlags().StringVar(&flagTo, "to", "", "kitty remote control address, e.g. unix:/tmp/kitty (default: $KITTY_LISTEN_ON)")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "remote control password")
	rootCmd.PersistentFlags().StringVar(&flagTheme, "theme", "", "color theme: dark, light")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "append switcher logs to this file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
}

// loadConfig reads the config file and environment, then applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("to") {
		cfg.ListenOn = flagTo
	}
	if flags.Changed("password") {
		cfg.Password = flagPassword
	}
	if flags.Changed("theme") {
		cfg.Theme = flagTheme
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.ConfigFile != "" {
		pslog.Ctx(cmd.Context()).Debug("config loaded", "path", cfg.ConfigFile)
	}
	return cfg, nil
}

func muxOptions(cfg *config.Config) mux.Options {
	return mux.Options{Address: cfg.ListenOn, Password: cfg.Password}
}

// dialContext bounds connection setup by the configured dial timeout.
func dialContext(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.DialTimeoutDuration <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.DialTimeoutDuration)
}

// getMultiplexer connects the synchronous client used by the
// non-interactive commands.
func getMultiplexer(cmd *cobra.Command) (mux.Multiplexer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	ctx, cancel := dialContext(cmd.Context(), cfg)
	defer cancel()

	m, err := mux.FromName(ctx, flagMux, muxOptions(cfg))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("connecting to kitty: timed out after %s", cfg.DialTimeoutDuration.Round(time.Millisecond))
		}
		return nil, fmt.Errorf("connecting to kitty: %w", err)
	}
	return m, nil
}
