package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"tempo/internal/core/model"
	"tempo/internal/core/timekeeper"
)

// SoundSource reports the user's current sound choice.
type SoundSource interface {
	Settings() model.Settings
}

// Dispatcher consumes TimeKeeper events and notifies the user of alarms,
// finished countdowns and completed pomodoro phases.
type Dispatcher struct {
	sink     Sink
	player   Player
	settings SoundSource
	logger   *slog.Logger
}

// NewDispatcher wires a sink and player. Nil values fall back to Noop.
func NewDispatcher(sink Sink, player Player, settings SoundSource, logger *slog.Logger) *Dispatcher {
	if sink == nil {
		sink = Noop{}
	}
	if player == nil {
		player = Noop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{sink: sink, player: player, settings: settings, logger: logger}
}

// Run handles events until the channel closes or ctx is cancelled.
func (dispatcher *Dispatcher) Run(ctx context.Context, events <-chan timekeeper.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			dispatcher.Handle(event)
		}
	}
}

// Handle processes a single event.
func (dispatcher *Dispatcher) Handle(event timekeeper.Event) {
	title, body, ok := describe(event)
	if !ok {
		if event.Type == timekeeper.EventPersistFailed {
			dispatcher.logger.Error("state not saved", "error", event.Message)
		}
		return
	}

	if err := dispatcher.sink.Notify(title, body); err != nil {
		dispatcher.logger.Warn("notification failed", "title", title, "error", err)
	}
	sound := SoundNone
	if dispatcher.settings != nil {
		sound = dispatcher.settings.Settings().Sound
	}
	if err := dispatcher.player.Play(sound); err != nil {
		dispatcher.logger.Warn("sound failed", "sound", sound, "error", err)
	}
}

func describe(event timekeeper.Event) (title, body string, ok bool) {
	switch event.Type {
	case timekeeper.EventAlarmFired:
		if event.Alarm == nil {
			return "", "", false
		}
		body = event.Alarm.Clock()
		if event.Alarm.Label != "" {
			body = fmt.Sprintf("%s (%s)", event.Alarm.Label, body)
		}
		return "Alarm", body, true
	case timekeeper.EventTimerFinished:
		return "Timer", "Countdown finished", true
	case timekeeper.EventPhaseCompleted:
		if event.Session != nil {
			body = fmt.Sprintf("%d min of focus done. Take a break.", event.Session.Minutes)
			if event.Session.Tag != "" {
				body = fmt.Sprintf("%s: %s", event.Session.Tag, body)
			}
			return "Pomodoro", body, true
		}
		return "Pomodoro", "Break over", true
	default:
		return "", "", false
	}
}
