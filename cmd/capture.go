package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/timvw/kitty-mux/internal/mux"
)

var flagCaptureANSI bool

var captureCmd = &cobra.Command{
	Use:   "capture <window-id>",
	Short: "Capture the visible content of a window",
	Long: `Capture the visible screen of a kitty window and print it to stdout.

This is the same capture the switcher shows as a preview. Colors and
other escape sequences are kept with --ansi.`,
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
		return runCapture(cmd.Context(), m, cmd.OutOrStdout(), id, flagCaptureANSI)
	},
}

func init() {
	captureCmd.Flags().BoolVar(&flagCaptureANSI, "ansi", false, "keep escape sequences")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(ctx context.Context, m mux.Multiplexer, w io.Writer, id int64, ansi bool) error {
	content, err := m.GetText(ctx, id, ansi)
	if err != nil {
		return fmt.Errorf("failed to capture window %d: %w", id, err)
	}
	_, err = fmt.Fprint(w, content)
	return err
}

// parseWindowID accepts "42" or kitty's "id:42" match syntax.
func parseWindowID(arg string) (int64, error) {
	return parseID("window", arg)
}

func parseID(kind, arg string) (int64, error) {
	if len(arg) > 3 && arg[:3] == "id:" {
		arg = arg[3:]
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}
