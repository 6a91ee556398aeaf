// Package countdown implements a tick-driven countdown state machine.
package countdown

import (
	"fmt"
	"time"

	"tempo/internal/core/model"
)

// Timer counts down from a total duration. It is not safe for concurrent use.
type Timer struct {
	mode      model.TimerMode
	remaining time.Duration
	total     time.Duration
}

// New returns an idle timer.
func New() *Timer {
	return &Timer{mode: model.TimerIdle}
}

// Start arms the timer and starts it. It is legal from any mode.
func (timer *Timer) Start(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("start countdown %s: %w", duration, model.ErrInvalidDuration)
	}
	timer.mode = model.TimerRunning
	timer.total = duration
	timer.remaining = duration
	return nil
}

// Pause freezes a running timer.
func (timer *Timer) Pause() bool {
	if timer.mode != model.TimerRunning {
		return false
	}
	timer.mode = model.TimerPaused
	return true
}

// Resume continues a paused timer.
func (timer *Timer) Resume() bool {
	if timer.mode != model.TimerPaused {
		return false
	}
	timer.mode = model.TimerRunning
	return true
}

// Stop cancels a running or paused timer.
func (timer *Timer) Stop() bool {
	if timer.mode != model.TimerRunning && timer.mode != model.TimerPaused {
		return false
	}
	timer.mode = model.TimerIdle
	timer.remaining = 0
	timer.total = 0
	return true
}

// Tick advances a running timer by delta and reports whether this tick
// finished it. Non-positive deltas and non-running timers are ignored.
func (timer *Timer) Tick(delta time.Duration) bool {
	if timer.mode != model.TimerRunning || delta <= 0 {
		return false
	}
	timer.remaining -= delta
	if timer.remaining > 0 {
		return false
	}
	timer.remaining = 0
	timer.mode = model.TimerFinished
	return true
}

// State returns a read-only view of the timer.
func (timer *Timer) State() model.TimerState {
	return model.TimerState{
		Mode:      timer.mode,
		Remaining: timer.remaining,
		Total:     timer.total,
	}
}
