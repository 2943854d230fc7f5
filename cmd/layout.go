package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/timvw/kitty-mux/internal/model"
	"github.com/timvw/kitty-mux/internal/mux"
)

var layoutNames = []string{
	model.LayoutFat,
	model.LayoutGrid,
	model.LayoutHorizontal,
	model.LayoutSplits,
	model.LayoutStack,
	model.LayoutTall,
	model.LayoutVertical,
}

var layoutCmd = &cobra.Command{
	Use:   "layout <tab-id> <layout>",
	Short: "Switch a tab to another layout",
	Long: `Switch a kitty tab to one of kitty's layouts: ` + strings.Join(layoutNames, ", ") + `.

This is the request the switcher uses to show the active tab in the stack
layout. kitty does not answer it, so success only means it was sent.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("tab", args[0])
		if err != nil {
			return err
		}
		if err := checkLayout(args[1]); err != nil {
			return err
		}

		m, err := getMultiplexer(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		return runLayout(cmd.Context(), m, id, args[1])
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}

func checkLayout(name string) error {
	if !slices.Contains(layoutNames, name) {
		return fmt.Errorf("unknown layout %q (one of: %s)", name, strings.Join(layoutNames, ", "))
	}
	return nil
}

func runLayout(ctx context.Context, m mux.Multiplexer, tabID int64, layout string) error {
	if err := m.GotoLayout(ctx, tabID, layout); err != nil {
		return fmt.Errorf("failed to set layout of tab %d: %w", tabID, err)
	}
	pslog.Ctx(ctx).Debug("layout sent", "tab_id", tabID, "layout", layout)
	return nil
}
