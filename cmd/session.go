package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/mux"
	"github.com/timvw/kitty-mux/internal/session"
)

var (
	flagSessionOutput  string
	flagSessionDefault bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Export the active OS window as a kitty session file",
	Long: `Export the tabs and windows of the active OS window in kitty's session
file format, so they can be restored with "kitty --session <file>".

The session is printed to stdout unless --output or --default-output is
given. --default-output writes ~/.config/kitty/kitty-mux/kitty-session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagSessionOutput != "" && flagSessionDefault {
			return fmt.Errorf("--output and --default-output are mutually exclusive")
		}

		path := flagSessionOutput
		if flagSessionDefault {
			var err error
			if path, err = session.DefaultPath(); err != nil {
				return err
			}
		}

		m, err := getMultiplexer(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		return runSession(cmd.Context(), m, cmd.OutOrStdout(), path)
	},
}

func init() {
	sessionCmd.Flags().StringVarP(&flagSessionOutput, "output", "o", "", "write the session to this file")
	sessionCmd.Flags().BoolVar(&flagSessionDefault, "default-output", false, "write to ~/.config/kitty/kitty-mux/kitty-session")
	rootCmd.AddCommand(sessionCmd)
}

// runSession prints the session to w, or saves it when path is set.
func runSession(ctx context.Context, m mux.Multiplexer, w io.Writer, path string) error {
	windows, err := m.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	text, err := session.Convert(windows)
	if err != nil {
		return err
	}
	if path == "" {
		_, err := fmt.Fprint(w, text)
		return err
	}
	if err := session.Save(path, text); err != nil {
		return err
	}
	pslog.Ctx(ctx).Info("session saved", "path", path)
	return nil
}
