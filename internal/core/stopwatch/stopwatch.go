// Package stopwatch implements a tick-driven elapsed-time accumulator.
package stopwatch

import (
	"time"

	"tempo/internal/core/model"
)

// Stopwatch accumulates elapsed time while running. It is not safe for
// concurrent use.
type Stopwatch struct {
	mode    model.StopwatchMode
	elapsed time.Duration
	laps    []time.Duration
}

// New returns an idle stopwatch.
func New() *Stopwatch {
	return &Stopwatch{mode: model.StopwatchIdle}
}

// Start begins counting from zero. Only legal from idle.
func (watch *Stopwatch) Start() bool {
	if watch.mode != model.StopwatchIdle {
		return false
	}
	watch.mode = model.StopwatchRunning
	watch.elapsed = 0
	watch.laps = nil
	return true
}

// Pause freezes a running stopwatch.
func (watch *Stopwatch) Pause() bool {
	if watch.mode != model.StopwatchRunning {
		return false
	}
	watch.mode = model.StopwatchPaused
	return true
}

// Resume continues a paused stopwatch.
func (watch *Stopwatch) Resume() bool {
	if watch.mode != model.StopwatchPaused {
		return false
	}
	watch.mode = model.StopwatchRunning
	return true
}

// Reset returns to idle with zero elapsed time from any mode.
func (watch *Stopwatch) Reset() {
	watch.mode = model.StopwatchIdle
	watch.elapsed = 0
	watch.laps = nil
}

// Lap records the current elapsed time as a split. Only legal while running.
func (watch *Stopwatch) Lap() (time.Duration, bool) {
	if watch.mode != model.StopwatchRunning {
		return 0, false
	}
	watch.laps = append(watch.laps, watch.elapsed)
	return watch.elapsed, true
}

// Tick adds delta while running.
func (watch *Stopwatch) Tick(delta time.Duration) {
	if watch.mode != model.StopwatchRunning || delta <= 0 {
		return
	}
	watch.elapsed += delta
}

// State returns a read-only view of the stopwatch.
func (watch *Stopwatch) State() model.StopwatchState {
	return model.StopwatchState{
		Mode:    watch.mode,
		Elapsed: watch.elapsed,
		Laps:    append([]time.Duration(nil), watch.laps...),
	}
}
