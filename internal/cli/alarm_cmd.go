package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tempo/internal/cli/formatter"
	"tempo/internal/core/model"
)

func newAlarmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alarm",
		Short: "Manage wall-clock alarms",
	}

	cmd.AddCommand(
		newAlarmAddCmd(app),
		newAlarmListCmd(app),
		newAlarmRemoveCmd(app),
		newAlarmToggleCmd(app),
	)

	return cmd
}

func newAlarmAddCmd(app *App) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add HH:MM[:SS]",
		Short: "Add an enabled alarm (24-hour time)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute, second, err := model.ParseClock(args[0])
			if err != nil {
				return err
			}
			return app.withLock(func() error {
				created, err := app.Keeper.AddAlarm(hour, minute, second, label)
				if created.ID == "" {
					return err
				}
				format := app.Keeper.Settings().TimeFormat
				fmt.Fprintf(cmd.OutOrStdout(), "Added alarm %s at %s\n",
					formatter.TruncID(created.ID), formatter.AlarmTime(created, format))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Alarm label")

	return cmd
}

func newAlarmListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List alarms",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := app.Keeper.Settings().TimeFormat
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAlarms(app.Keeper.Alarms(), format))
			return nil
		},
	}
}

func newAlarmRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove an alarm by ID or unique ID prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLock(func() error {
				id, err := resolveAlarmID(app, args[0])
				if err != nil {
					return err
				}
				if err := app.Keeper.RemoveAlarm(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed alarm %s\n", formatter.TruncID(id))
				return nil
			})
		},
	}
}

func newAlarmToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Enable or disable an alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLock(func() error {
				id, err := resolveAlarmID(app, args[0])
				if err != nil {
					return err
				}
				toggled, err := app.Keeper.ToggleAlarm(id)
				if toggled.ID == "" {
					return err
				}
				state := "disabled"
				if toggled.Enabled {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Alarm %s %s\n", formatter.TruncID(id), state)
				return err
			})
		},
	}
}

// resolveAlarmID accepts a full ID or a prefix that matches exactly one
// alarm.
func resolveAlarmID(app *App, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("alarm ID is empty: %w", model.ErrNotFound)
	}
	var matches []string
	for _, alarm := range app.Keeper.Alarms() {
		if alarm.ID == prefix {
			return alarm.ID, nil
		}
		if strings.HasPrefix(alarm.ID, prefix) {
			matches = append(matches, alarm.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("alarm %q: %w", prefix, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("alarm prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
