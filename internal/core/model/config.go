package model

import "time"

const (
	// DefaultWorkDuration is the length of a pomodoro work phase.
	DefaultWorkDuration = 25 * time.Minute
	// DefaultBreakDuration is the length of the break that follows it.
	DefaultBreakDuration = 5 * time.Minute
)

// Time formats accepted in Settings.TimeFormat.
const (
	TimeFormat12 = 12
	TimeFormat24 = 24
)

// PomodoroConfig defines the two phase lengths of the cycle.
type PomodoroConfig struct {
	Work  time.Duration
	Break time.Duration
}

// DefaultPomodoroConfig returns the classic 25/5 cycle.
func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		Work:  DefaultWorkDuration,
		Break: DefaultBreakDuration,
	}
}

// Settings holds user preferences persisted alongside the engine state.
type Settings struct {
	Theme        string
	Sound        string
	TimeFormat   int
	TimeOffset   time.Duration
	WindowMode   string
	TimerPresets []time.Duration
	DefaultTags  []string
}

// DefaultSettings returns default settings for Tempo.
func DefaultSettings() Settings {
	return Settings{
		Theme:      "dark",
		Sound:      "beep",
		TimeFormat: TimeFormat24,
		WindowMode: "normal",
		TimerPresets: []time.Duration{
			1 * time.Minute,
			5 * time.Minute,
			10 * time.Minute,
			15 * time.Minute,
			25 * time.Minute,
			30 * time.Minute,
			60 * time.Minute,
		},
		DefaultTags: []string{"💻 Code", "📚 Study", "✍️ Writing", "🧘 Break"},
	}
}

// Normalize replaces out-of-range values with defaults.
func (settings Settings) Normalize() Settings {
	defaults := DefaultSettings()
	if settings.Theme == "" {
		settings.Theme = defaults.Theme
	}
	if settings.Sound == "" {
		settings.Sound = defaults.Sound
	}
	if settings.TimeFormat != TimeFormat12 && settings.TimeFormat != TimeFormat24 {
		settings.TimeFormat = defaults.TimeFormat
	}
	if settings.WindowMode == "" {
		settings.WindowMode = defaults.WindowMode
	}

	presets := make([]time.Duration, 0, len(settings.TimerPresets))
	for _, preset := range settings.TimerPresets {
		if preset > 0 {
			presets = append(presets, preset)
		}
	}
	if len(presets) == 0 {
		presets = defaults.TimerPresets
	}
	settings.TimerPresets = presets

	if settings.DefaultTags == nil {
		settings.DefaultTags = defaults.DefaultTags
	}
	return settings
}

// Clone returns a deep copy.
func (settings Settings) Clone() Settings {
	settings.TimerPresets = append([]time.Duration(nil), settings.TimerPresets...)
	settings.DefaultTags = append([]string(nil), settings.DefaultTags...)
	return settings
}
