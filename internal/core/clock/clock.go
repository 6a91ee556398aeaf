// Package clock supplies the engine's notion of "now".
package clock

import (
	"sync"
	"time"
)

// Clock reports the current local time.
type Clock interface {
	Now() time.Time
}

// Offset is a wall clock shifted by a user-configured offset.
type Offset struct {
	mu     sync.RWMutex
	source func() time.Time
	offset time.Duration
}

// New returns a system clock shifted by offset.
func New(offset time.Duration) *Offset {
	return NewWithSource(time.Now, offset)
}

// NewWithSource returns a clock reading source instead of time.Now.
func NewWithSource(source func() time.Time, offset time.Duration) *Offset {
	if source == nil {
		source = time.Now
	}
	return &Offset{source: source, offset: offset}
}

// Now returns source time plus the offset.
func (clock *Offset) Now() time.Time {
	clock.mu.RLock()
	defer clock.mu.RUnlock()
	return clock.source().Add(clock.offset)
}

// SetOffset replaces the configured offset.
func (clock *Offset) SetOffset(offset time.Duration) {
	clock.mu.Lock()
	clock.offset = offset
	clock.mu.Unlock()
}

// Offset returns the configured offset.
func (clock *Offset) Offset() time.Duration {
	clock.mu.RLock()
	defer clock.mu.RUnlock()
	return clock.offset
}

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (clock *Manual) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

// Set moves the clock to now.
func (clock *Manual) Set(now time.Time) {
	clock.mu.Lock()
	clock.now = now
	clock.mu.Unlock()
}

// Advance moves the clock forward by delta.
func (clock *Manual) Advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}
