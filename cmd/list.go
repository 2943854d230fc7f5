package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/timvw/kitty-mux/internal/model"
	"github.com/timvw/kitty-mux/internal/mux"
)

var (
	flagListAll  bool
	flagListJSON bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tabs and windows of the active OS window",
	Long: `List the tabs of the active kitty OS window with their windows.

Each window line starts with the window id, which can be passed to other
commands (capture, focus). Windows without shell integration are hidden
unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := getMultiplexer(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		return runList(cmd.Context(), m, cmd.OutOrStdout(), flagListAll, flagListJSON)
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagListAll, "all", false, "include windows without shell integration")
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "print the raw listing as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context, m mux.Multiplexer, w io.Writer, all, asJSON bool) error {
	windows, err := m.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(windows)
	}
	return printListing(w, windows, all)
}

// printListing writes one line per tab and one indented line per window.
func printListing(w io.Writer, windows []model.OSWindow, all bool) error {
	active, err := model.ActiveOSWindow(windows)
	if err != nil {
		return err
	}
	for _, tab := range active.Tabs {
		marker := " "
		if tab.IsActive {
			marker = "*"
		}
		fmt.Fprintf(w, "%s tab %d: %s [%s]\n", marker, tab.ID, tab.Title, tab.Layout)

		shown := tab.Windows
		if !all {
			shown = model.FilterWindows(tab.Windows)
		}
		for _, win := range shown {
			marker := " "
			if win.IsActive {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %d\t%s\t%s\n", marker, win.ID, win.Title, win.Cwd)
		}
	}
	return nil
}
