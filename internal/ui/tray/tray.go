// Package tray owns the system tray menu.
package tray

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"tempo/internal/core/model"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnStartPomodoro   func(tag string)
	OnStopPomodoro    func()
	OnSkipPhase       func()
	OnStartTimer      func(preset int)
	OnStopTimer       func()
	OnToggleStopwatch func()
	OnResetStopwatch  func()
	OnAddAlarm        func()
	OnPreferences     func()
	OnQuit            func()
}

// Menu describes what the tray can offer; it changes with the settings.
type Menu struct {
	Tags    []string
	Presets []time.Duration
}

// Manager handles system tray state.
type Manager struct {
	app            desktop.App
	callbacks      Callbacks
	menu           Menu
	statusLabel    string
	pomodoroActive bool
	timerActive    bool
	stopwatchMode  model.StopwatchMode
}

// New creates a tray manager and installs its menu.
func New(app desktop.App, menu Menu, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:           app,
		callbacks:     callbacks,
		menu:          menu,
		statusLabel:   "starting...",
		stopwatchMode: model.StopwatchIdle,
	}
	manager.refreshMenu()
	return manager
}

// SetMenu replaces the tag and preset lists.
func (manager *Manager) SetMenu(menu Menu) {
	manager.menu = menu
	manager.refreshMenu()
}

// SetStatus updates the status line. It only rebuilds the menu when the
// visible state changed.
func (manager *Manager) SetStatus(status string, pomodoroActive, timerActive bool, stopwatchMode model.StopwatchMode) {
	if status == manager.statusLabel && pomodoroActive == manager.pomodoroActive &&
		timerActive == manager.timerActive && stopwatchMode == manager.stopwatchMode {
		return
	}
	manager.statusLabel = status
	manager.pomodoroActive = pomodoroActive
	manager.timerActive = timerActive
	manager.stopwatchMode = stopwatchMode
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("Tempo", manager.items()...))
}

func (manager *Manager) items() []*fyne.MenuItem {
	callbacks := manager.callbacks
	status := fyne.NewMenuItem(manager.statusLabel, nil)
	status.Disabled = true

	items := []*fyne.MenuItem{status, fyne.NewMenuItemSeparator()}

	if manager.pomodoroActive {
		items = append(items,
			fyne.NewMenuItem("Skip phase", invoke(callbacks.OnSkipPhase)),
			fyne.NewMenuItem("Stop Pomodoro", invoke(callbacks.OnStopPomodoro)),
		)
	} else {
		pomodoro := fyne.NewMenuItem("Start Pomodoro", nil)
		tagItems := []*fyne.MenuItem{fyne.NewMenuItem("No tag", func() { startPomodoro(callbacks, "") })}
		for _, tag := range manager.menu.Tags {
			tagItems = append(tagItems, fyne.NewMenuItem(tag, func() { startPomodoro(callbacks, tag) }))
		}
		pomodoro.ChildMenu = fyne.NewMenu("", tagItems...)
		items = append(items, pomodoro)
	}

	if manager.timerActive {
		items = append(items, fyne.NewMenuItem("Stop timer", invoke(callbacks.OnStopTimer)))
	} else {
		timer := fyne.NewMenuItem("Start timer", nil)
		presetItems := make([]*fyne.MenuItem, 0, len(manager.menu.Presets))
		for index, preset := range manager.menu.Presets {
			presetItems = append(presetItems, fyne.NewMenuItem(presetLabel(preset), func() {
				if callbacks.OnStartTimer != nil {
					callbacks.OnStartTimer(index)
				}
			}))
		}
		timer.ChildMenu = fyne.NewMenu("", presetItems...)
		items = append(items, timer)
	}

	stopwatchLabel := "Start stopwatch"
	switch manager.stopwatchMode {
	case model.StopwatchRunning:
		stopwatchLabel = "Pause stopwatch"
	case model.StopwatchPaused:
		stopwatchLabel = "Resume stopwatch"
	}
	items = append(items, fyne.NewMenuItem(stopwatchLabel, invoke(callbacks.OnToggleStopwatch)))
	if manager.stopwatchMode != model.StopwatchIdle {
		items = append(items, fyne.NewMenuItem("Reset stopwatch", invoke(callbacks.OnResetStopwatch)))
	}

	items = append(items,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Add alarm…", invoke(callbacks.OnAddAlarm)),
		fyne.NewMenuItem("Preferences", invoke(callbacks.OnPreferences)),
		fyne.NewMenuItem("Quit", invoke(callbacks.OnQuit)),
	)
	return items
}

func invoke(callback func()) func() {
	return func() {
		if callback != nil {
			callback()
		}
	}
}

func startPomodoro(callbacks Callbacks, tag string) {
	if callbacks.OnStartPomodoro != nil {
		callbacks.OnStartPomodoro(tag)
	}
}

func presetLabel(preset time.Duration) string {
	if preset%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(preset/time.Minute))
	}
	return preset.String()
}
