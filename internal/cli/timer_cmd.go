package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tempo/internal/cli/formatter"
)

func newTimerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Countdown timer helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List countdown presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := app.Keeper.Settings().TimerPresets
			rows := make([][]string, 0, len(presets))
			for i, preset := range presets {
				rows = append(rows, []string{fmt.Sprint(i), formatter.Duration(preset)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"#", "DURATION"}, rows))
			return nil
		},
	})

	return cmd
}
