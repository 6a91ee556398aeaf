package model

import (
	"fmt"
	"time"
)

// DateLayout is the layout of Session.Date.
const DateLayout = "2006-01-02"

// Alarm is a one-shot wall-clock alarm.
type Alarm struct {
	ID      string
	Hour    int
	Minute  int
	Second  int
	Label   string
	Enabled bool
}

// Clock returns the alarm time as HH:MM:SS.
func (alarm Alarm) Clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", alarm.Hour, alarm.Minute, alarm.Second)
}

// Matches reports whether now, truncated to the second, is the alarm time.
func (alarm Alarm) Matches(now time.Time) bool {
	hour, minute, second := now.Clock()
	return alarm.Hour == hour && alarm.Minute == minute && alarm.Second == second
}

// ValidateClock checks an hour/minute/second triple.
func ValidateClock(hour, minute, second int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23: %w", hour, ErrInvalidTime)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("minute %d out of range 0-59: %w", minute, ErrInvalidTime)
	}
	if second < 0 || second > 59 {
		return fmt.Errorf("second %d out of range 0-59: %w", second, ErrInvalidTime)
	}
	return nil
}

// TimerMode is the countdown state.
type TimerMode string

const (
	TimerIdle     TimerMode = "idle"
	TimerRunning  TimerMode = "running"
	TimerPaused   TimerMode = "paused"
	TimerFinished TimerMode = "finished"
)

// TimerState is a read-only view of a countdown.
type TimerState struct {
	Mode      TimerMode
	Remaining time.Duration
	Total     time.Duration
}

// Progress returns the elapsed fraction in [0,1].
func (state TimerState) Progress() float64 {
	if state.Total <= 0 {
		return 0
	}
	progress := float64(state.Total-state.Remaining) / float64(state.Total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// StopwatchMode is the stopwatch state.
type StopwatchMode string

const (
	StopwatchIdle    StopwatchMode = "idle"
	StopwatchRunning StopwatchMode = "running"
	StopwatchPaused  StopwatchMode = "paused"
)

// StopwatchState is a read-only view of the stopwatch.
type StopwatchState struct {
	Mode    StopwatchMode
	Elapsed time.Duration
	Laps    []time.Duration
}

// Phase is the pomodoro sub-state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseWorking Phase = "working"
	PhaseBreak   Phase = "break"
)

// PhaseState is a read-only view of the pomodoro cycle.
type PhaseState struct {
	Phase     Phase
	Timer     TimerState
	ActiveTag string
	StartedAt time.Time
}

// Session is a completed pomodoro work interval. Sessions are never mutated.
type Session struct {
	Date        string
	Tag         string
	StartedAt   time.Time
	CompletedAt time.Time
	Minutes     int
}

// TagStats aggregates sessions sharing one tag.
type TagStats struct {
	Count   int
	Minutes int
}

// Stats aggregates the whole session log.
type Stats struct {
	TotalSessions int
	TotalMinutes  int
	ByTag         map[string]TagStats
}

// NewStats returns empty stats.
func NewStats() Stats {
	return Stats{ByTag: make(map[string]TagStats)}
}

// Clone returns a deep copy.
func (stats Stats) Clone() Stats {
	clone := Stats{
		TotalSessions: stats.TotalSessions,
		TotalMinutes:  stats.TotalMinutes,
		ByTag:         make(map[string]TagStats, len(stats.ByTag)),
	}
	for tag, tagStats := range stats.ByTag {
		clone.ByTag[tag] = tagStats
	}
	return clone
}

// Equal compares two stats values, treating nil and empty tag maps alike.
func (stats Stats) Equal(other Stats) bool {
	if stats.TotalSessions != other.TotalSessions || stats.TotalMinutes != other.TotalMinutes {
		return false
	}
	if len(stats.ByTag) != len(other.ByTag) {
		return false
	}
	for tag, tagStats := range stats.ByTag {
		if otherStats, ok := other.ByTag[tag]; !ok || otherStats != tagStats {
			return false
		}
	}
	return true
}

// Snapshot is the full persisted document.
type Snapshot struct {
	Settings Settings
	Alarms   []Alarm
	History  []Session
	Stats    Stats
}

// DefaultSnapshot returns the state used when nothing was persisted yet.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Settings: DefaultSettings(),
		Alarms:   []Alarm{},
		History:  []Session{},
		Stats:    NewStats(),
	}
}
