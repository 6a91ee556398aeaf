// Package pomodoro runs the tagged work/break cycle.
package pomodoro

import (
	"fmt"
	"time"

	"tempo/internal/core/clock"
	"tempo/internal/core/countdown"
	"tempo/internal/core/model"
)

// Recorder receives completed work sessions.
type Recorder interface {
	RecordSession(session model.Session)
}

// Completion describes a phase that finished during a tick. Session is set
// only for work phases.
type Completion struct {
	Phase   model.Phase
	Session *model.Session
	At      time.Time
}

// Engine is the two-phase state machine. It is not safe for concurrent use.
type Engine struct {
	config    model.PomodoroConfig
	clock     clock.Clock
	recorder  Recorder
	phase     model.Phase
	timer     *countdown.Timer
	activeTag string
	startedAt time.Time
}

// New creates an idle engine. Non-positive durations fall back to defaults.
func New(config model.PomodoroConfig, clk clock.Clock, recorder Recorder) *Engine {
	defaults := model.DefaultPomodoroConfig()
	if config.Work <= 0 {
		config.Work = defaults.Work
	}
	if config.Break <= 0 {
		config.Break = defaults.Break
	}
	return &Engine{
		config:   config,
		clock:    clk,
		recorder: recorder,
		phase:    model.PhaseIdle,
		timer:    countdown.New(),
	}
}

// Start begins a work phase tagged with tag, which may be empty.
func (engine *Engine) Start(tag string) error {
	if engine.phase != model.PhaseIdle {
		return fmt.Errorf("start pomodoro in phase %s: %w", engine.phase, model.ErrAlreadyActive)
	}
	if err := engine.timer.Start(engine.config.Work); err != nil {
		return fmt.Errorf("start pomodoro: %w", err)
	}
	engine.phase = model.PhaseWorking
	engine.activeTag = tag
	engine.startedAt = engine.clock.Now()
	return nil
}

// Stop abandons the current phase without recording a session.
func (engine *Engine) Stop() bool {
	if engine.phase == model.PhaseIdle {
		return false
	}
	engine.reset()
	return true
}

// Pause freezes the active phase timer.
func (engine *Engine) Pause() bool {
	return engine.phase != model.PhaseIdle && engine.timer.Pause()
}

// Resume continues the active phase timer.
func (engine *Engine) Resume() bool {
	return engine.phase != model.PhaseIdle && engine.timer.Resume()
}

// Skip ends the active phase early. A skipped work phase moves straight to
// the break and records nothing; a skipped break returns to idle.
func (engine *Engine) Skip() bool {
	switch engine.phase {
	case model.PhaseWorking:
		engine.phase = model.PhaseBreak
		engine.timer = countdown.New()
		_ = engine.timer.Start(engine.config.Break)
		return true
	case model.PhaseBreak:
		engine.reset()
		return true
	}
	return false
}

// Tick advances the active phase by delta and reports the phase that
// finished, if any. A work phase finishing records a session and arms the
// break; the break is never advanced by the same delta.
func (engine *Engine) Tick(delta time.Duration) (Completion, bool) {
	if engine.phase == model.PhaseIdle || !engine.timer.Tick(delta) {
		return Completion{}, false
	}

	now := engine.clock.Now()
	switch engine.phase {
	case model.PhaseWorking:
		session := model.Session{
			Date:        now.Format(model.DateLayout),
			Tag:         engine.activeTag,
			StartedAt:   engine.startedAt,
			CompletedAt: now,
			Minutes:     int(engine.config.Work / time.Minute),
		}
		if engine.recorder != nil {
			engine.recorder.RecordSession(session)
		}
		engine.phase = model.PhaseBreak
		_ = engine.timer.Start(engine.config.Break)
		return Completion{Phase: model.PhaseWorking, Session: &session, At: now}, true
	case model.PhaseBreak:
		engine.reset()
		return Completion{Phase: model.PhaseBreak, At: now}, true
	}
	return Completion{}, false
}

// State returns a read-only view of the cycle.
func (engine *Engine) State() model.PhaseState {
	return model.PhaseState{
		Phase:     engine.phase,
		Timer:     engine.timer.State(),
		ActiveTag: engine.activeTag,
		StartedAt: engine.startedAt,
	}
}

// Config returns the phase durations in use.
func (engine *Engine) Config() model.PomodoroConfig {
	return engine.config
}

func (engine *Engine) reset() {
	engine.phase = model.PhaseIdle
	engine.activeTag = ""
	engine.startedAt = time.Time{}
	engine.timer = countdown.New()
}
