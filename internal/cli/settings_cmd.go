package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/cli/formatter"
	"tempo/internal/core/model"
)

var settingKeys = []string{"theme", "sound", "time_format", "time_offset", "window_mode", "timer_presets", "tags"}

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				settings := app.Keeper.Settings()
				rows := make([][]string, 0, len(settingKeys))
				for _, key := range settingKeys {
					rows = append(rows, []string{key, settingValue(settings, key)})
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"KEY", "VALUE"}, rows))
				return nil
			},
		},
		&cobra.Command{
			Use:       "set KEY VALUE",
			Short:     "Change one setting",
			Long:      "Keys: " + strings.Join(settingKeys, ", ") + ". Lists are comma separated.",
			Args:      cobra.ExactArgs(2),
			ValidArgs: settingKeys,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.withLock(func() error {
					settings, err := applySetting(app.Keeper.Settings(), args[0], args[1])
					if err != nil {
						return err
					}
					if err := app.Keeper.UpdateSettings(settings); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], settingValue(app.Keeper.Settings(), args[0]))
					return nil
				})
			},
		},
	)

	return cmd
}

func settingValue(settings model.Settings, key string) string {
	switch key {
	case "theme":
		return settings.Theme
	case "sound":
		return settings.Sound
	case "time_format":
		return strconv.Itoa(settings.TimeFormat)
	case "time_offset":
		return settings.TimeOffset.String()
	case "window_mode":
		return settings.WindowMode
	case "timer_presets":
		return model.FormatPresets(settings.TimerPresets)
	case "tags":
		return strings.Join(settings.DefaultTags, ",")
	default:
		return ""
	}
}

func applySetting(settings model.Settings, key, value string) (model.Settings, error) {
	switch key {
	case "theme":
		settings.Theme = value
	case "sound":
		settings.Sound = value
	case "window_mode":
		settings.WindowMode = value
	case "time_format":
		format, err := model.ParseTimeFormat(value)
		if err != nil {
			return settings, err
		}
		settings.TimeFormat = format
	case "time_offset":
		offset, err := time.ParseDuration(value)
		if err != nil {
			return settings, fmt.Errorf("time_offset %q: %w", value, model.ErrInvalidDuration)
		}
		settings.TimeOffset = offset
	case "timer_presets":
		presets, err := model.ParsePresets(value)
		if err != nil {
			return settings, err
		}
		settings.TimerPresets = presets
	case "tags":
		settings.DefaultTags = model.SplitList(value)
	default:
		return settings, fmt.Errorf("unknown setting %q (keys: %s)", key, strings.Join(settingKeys, ", "))
	}
	return settings, nil
}
