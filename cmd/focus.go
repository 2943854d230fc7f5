package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/mux"
)

var focusCmd = &cobra.Command{
	Use:   "focus <window-id>",
	Short: "Focus a window",
	Long: `Focus a kitty window, switching to its tab. kitty does not answer
focus requests, so success only means the request was sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseWindowID(args[0])
		if err != nil {
			return err
		}

		m, err := getMultiplexer(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		return runFocus(cmd.Context(), m, id)
	},
}

func init() {
	rootCmd.AddCommand(focusCmd)
}

func runFocus(ctx context.Context, m mux.Multiplexer, id int64) error {
	if err := m.FocusWindow(ctx, id); err != nil {
		return fmt.Errorf("failed to focus window %d: %w", id, err)
	}
	pslog.Ctx(ctx).Debug("focus sent", "window_id", id)
	return nil
}
