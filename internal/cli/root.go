// Package cli wires the cobra command tree to a TimeKeeper.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"tempo/internal/config"
	"tempo/internal/core/timekeeper"
	"tempo/internal/notify"
	"tempo/internal/platform"
)

// App holds everything the commands act on. main builds it once per process.
type App struct {
	Keeper   *timekeeper.TimeKeeper
	Options  config.Options
	Logger   *slog.Logger
	Platform platform.Service
	// Player rings on alarms in the headless loop.
	Player notify.Player
	// Lock takes the single-instance lock for commands that write state. A nil
	// Lock means no locking.
	Lock func() (release func(), err error)
	// Reload refreshes the keeper from storage once the lock is held, so
	// saves never overwrite what another process wrote in between.
	Reload func() error
	// LaunchTray runs the desktop tray until the user quits. It is nil when the
	// binary was built without a GUI driver.
	LaunchTray func(ctx context.Context) error
	// Executable returns the path written into autostart entries.
	Executable func() (string, error)
}

// NewRootCmd creates the top-level "tempo" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tempo",
		Short:         "Alarms, countdowns, a stopwatch and Pomodoro sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(app),
		newTrayCmd(app),
		newAlarmCmd(app),
		newTimerCmd(app),
		newStatsCmd(app),
		newHistoryCmd(app),
		newSettingsCmd(app),
		newAutostartCmd(app),
	)

	return root
}

// withLock runs fn while holding the single-instance lock, after reloading
// the keeper from storage.
func (app *App) withLock(fn func() error) error {
	if app.Lock != nil {
		release, err := app.Lock()
		if err != nil {
			return err
		}
		defer release()
	}
	if app.Reload != nil {
		if err := app.Reload(); err != nil {
			return err
		}
	}
	return fn()
}
