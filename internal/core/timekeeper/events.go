package timekeeper

import (
	"time"

	"tempo/internal/core/model"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventAlarmFired     EventType = "alarm_fired"
	EventTimerFinished  EventType = "timer_finished"
	EventPhaseCompleted EventType = "phase_completed"
	EventStateChange    EventType = "state_change"
	EventProgress       EventType = "progress"
	EventPersistFailed  EventType = "persist_failed"
)

// Status is a point-in-time view of every state machine.
type Status struct {
	Now       time.Time
	Timer     model.TimerState
	Stopwatch model.StopwatchState
	Pomodoro  model.PhaseState
}

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type EventType
	// Alarm is set for EventAlarmFired.
	Alarm *model.Alarm
	// Phase and Session are set for EventPhaseCompleted; Session only when a
	// work phase completed.
	Phase   model.Phase
	Session *model.Session
	Status  Status
	Message string
	At      time.Time
}
