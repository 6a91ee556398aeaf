// Package ui runs the desktop tray app on top of a TimeKeeper.
package ui

import (
	"context"
	"errors"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"tempo/internal/cli/formatter"
	"tempo/internal/core/model"
	"tempo/internal/core/timekeeper"
	"tempo/internal/notify"
	"tempo/internal/ui/alarmform"
	"tempo/internal/ui/preferences"
	"tempo/internal/ui/tray"
)

// AppID identifies the fyne application and its preferences store.
const AppID = "app.tempo.tray"

// Notifier shows desktop notifications through fyne.
type Notifier struct {
	app fyne.App
}

// NewNotifier returns a sink bound to app.
func NewNotifier(app fyne.App) *Notifier {
	return &Notifier{app: app}
}

func (notifier *Notifier) Notify(title, body string) error {
	notifier.app.SendNotification(fyne.NewNotification(title, body))
	return nil
}

// Launch runs the tray until the user quits or ctx is cancelled.
func Launch(ctx context.Context, keeper *timekeeper.TimeKeeper, player notify.Player, logger *slog.Logger) error {
	fyneApp := app.NewWithID(AppID)
	fyneApp.SetIcon(theme.HistoryIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("system tray unsupported on this platform")
	}

	settings := keeper.Settings()
	var trayManager *tray.Manager

	prefsWindow := preferences.New(fyneApp, settings, func(updated model.Settings) error {
		err := keeper.UpdateSettings(updated)
		trayManager.SetMenu(menuFor(keeper.Settings()))
		return err
	})
	alarmWindow := alarmform.New(fyneApp, func(request alarmform.Request) error {
		_, err := keeper.AddAlarm(request.Hour, request.Minute, request.Second, request.Label)
		return err
	})

	report := func(action string, err error) {
		if err != nil {
			logger.Warn("tray action failed", "action", action, "error", err)
		}
	}
	trayManager = tray.New(desktopApp, menuFor(settings), tray.Callbacks{
		OnStartPomodoro: func(tag string) { report("start pomodoro", keeper.StartPomodoro(tag)) },
		OnStopPomodoro:  func() { keeper.StopPomodoro() },
		OnSkipPhase:     func() { keeper.SkipPomodoro() },
		OnStartTimer:    func(preset int) { report("start timer", keeper.StartTimerPreset(preset)) },
		OnStopTimer:     func() { keeper.StopTimer() },
		OnToggleStopwatch: func() {
			switch keeper.Status().Stopwatch.Mode {
			case model.StopwatchRunning:
				keeper.PauseStopwatch()
			case model.StopwatchPaused:
				keeper.ResumeStopwatch()
			default:
				keeper.StartStopwatch()
			}
		},
		OnResetStopwatch: keeper.ResetStopwatch,
		OnAddAlarm:       alarmWindow.Show,
		OnPreferences:    prefsWindow.Show,
		OnQuit:           fyneApp.Quit,
	})
	desktopApp.SetSystemTrayIcon(theme.HistoryIcon())

	dispatcher := notify.NewDispatcher(
		notify.MultiSink{NewNotifier(fyneApp), notify.NewLogSink(logger)},
		player, keeper, logger)
	go dispatcher.Run(ctx, keeper.Subscribe(64))

	progress := keeper.Subscribe(64)
	go func() {
		for event := range progress {
			if event.Type != timekeeper.EventProgress && event.Type != timekeeper.EventStateChange {
				continue
			}
			status := event.Status
			line := formatter.StatusLine(status, keeper.Settings().TimeFormat)
			pomodoroActive := status.Pomodoro.Phase != model.PhaseIdle
			timerActive := status.Timer.Mode == model.TimerRunning || status.Timer.Mode == model.TimerPaused
			fyne.Do(func() {
				trayManager.SetStatus(line, pomodoroActive, timerActive, status.Stopwatch.Mode)
			})
		}
	}()

	quit := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(fyneApp.Quit)
		case <-quit:
		}
	}()

	keeper.Start()
	fyneApp.Run()
	close(quit)
	keeper.Stop()
	return nil
}

func menuFor(settings model.Settings) tray.Menu {
	return tray.Menu{Tags: settings.DefaultTags, Presets: settings.TimerPresets}
}
