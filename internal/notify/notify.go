// Package notify turns engine events into user-facing notifications and
// sounds.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// SoundNone disables playback.
const SoundNone = "none"

// Sink shows a notification to the user.
type Sink interface {
	Notify(title, body string) error
}

// Player plays a named sound.
type Player interface {
	Play(sound string) error
}

// Noop discards notifications and sounds.
type Noop struct{}

func (Noop) Notify(string, string) error { return nil }

func (Noop) Play(string) error { return nil }

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging at info level. A nil logger discards.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSink{logger: logger}
}

func (sink *LogSink) Notify(title, body string) error {
	sink.logger.Info("notification", "title", title, "body", body)
	return nil
}

// BellPlayer rings the terminal bell. Every sound maps to the bell; output
// that is not a terminal stays silent.
type BellPlayer struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
}

// NewBellPlayer rings on file only when it is a terminal.
func NewBellPlayer(file *os.File) *BellPlayer {
	fd := file.Fd()
	return &BellPlayer{
		out:     file,
		enabled: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (player *BellPlayer) Play(sound string) error {
	if !player.enabled || sound == "" || sound == SoundNone {
		return nil
	}
	player.mu.Lock()
	defer player.mu.Unlock()
	if _, err := io.WriteString(player.out, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

// MultiSink fans a notification out to several sinks and returns the first
// error after trying all of them.
type MultiSink []Sink

func (sinks MultiSink) Notify(title, body string) error {
	var firstErr error
	for _, sink := range sinks {
		if err := sink.Notify(title, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
