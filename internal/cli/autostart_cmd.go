package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tempo/internal/platform"
)

func newAutostartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Start the tray app at login",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Register the tray app to start at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if app.Platform == nil || app.Executable == nil {
					return errors.New("autostart is not available")
				}
				execPath, err := app.Executable()
				if err != nil {
					return fmt.Errorf("locate executable: %w", err)
				}
				if err := app.Platform.EnableAutostart(platform.AppName, execPath, "tray"); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Remove the login entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if app.Platform == nil {
					return errors.New("autostart is not available")
				}
				if err := app.Platform.DisableAutostart(platform.AppName); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the login entry exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if app.Platform == nil {
					return errors.New("autostart is not available")
				}
				enabled, err := app.Platform.AutostartEnabled(platform.AppName)
				if err != nil {
					return err
				}
				state := "disabled"
				if enabled {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Autostart is %s.\n", state)
				return nil
			},
		},
	)

	return cmd
}
