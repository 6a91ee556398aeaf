// Package alarm keeps the set of one-shot wall-clock alarms.
package alarm

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tempo/internal/core/model"
)

// Registry owns alarms in insertion order. It is not safe for concurrent use;
// the timekeeper serializes access.
type Registry struct {
	alarms []model.Alarm
	newID  func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{newID: uuid.NewString}
}

// Restore replaces the registry contents with previously persisted alarms.
// Alarms with an invalid time are dropped; missing ids are regenerated.
func (registry *Registry) Restore(alarms []model.Alarm) {
	registry.alarms = registry.alarms[:0]
	for _, alarm := range alarms {
		if model.ValidateClock(alarm.Hour, alarm.Minute, alarm.Second) != nil {
			continue
		}
		if alarm.ID == "" {
			alarm.ID = registry.newID()
		}
		registry.alarms = append(registry.alarms, alarm)
	}
}

// Add creates an enabled alarm.
func (registry *Registry) Add(hour, minute, second int, label string) (model.Alarm, error) {
	if err := model.ValidateClock(hour, minute, second); err != nil {
		return model.Alarm{}, fmt.Errorf("add alarm: %w", err)
	}
	alarm := model.Alarm{
		ID:      registry.newID(),
		Hour:    hour,
		Minute:  minute,
		Second:  second,
		Label:   strings.TrimSpace(label),
		Enabled: true,
	}
	registry.alarms = append(registry.alarms, alarm)
	return alarm, nil
}

// Remove deletes the alarm with the given id.
func (registry *Registry) Remove(id string) error {
	index := registry.indexOf(id)
	if index < 0 {
		return fmt.Errorf("remove alarm %q: %w", id, model.ErrNotFound)
	}
	registry.alarms = append(registry.alarms[:index], registry.alarms[index+1:]...)
	return nil
}

// Toggle flips the enabled flag of the alarm with the given id.
func (registry *Registry) Toggle(id string) (model.Alarm, error) {
	index := registry.indexOf(id)
	if index < 0 {
		return model.Alarm{}, fmt.Errorf("toggle alarm %q: %w", id, model.ErrNotFound)
	}
	registry.alarms[index].Enabled = !registry.alarms[index].Enabled
	return registry.alarms[index], nil
}

// Get returns the alarm with the given id.
func (registry *Registry) Get(id string) (model.Alarm, error) {
	index := registry.indexOf(id)
	if index < 0 {
		return model.Alarm{}, fmt.Errorf("get alarm %q: %w", id, model.ErrNotFound)
	}
	return registry.alarms[index], nil
}

// List returns a copy of all alarms in insertion order.
func (registry *Registry) List() []model.Alarm {
	return append([]model.Alarm(nil), registry.alarms...)
}

// Len returns the number of alarms.
func (registry *Registry) Len() int {
	return len(registry.alarms)
}

// EvaluateTick fires every enabled alarm whose time exactly equals now
// truncated to the second, disabling each one it fires. A second that is never
// evaluated is never matched.
//
// The caller must evaluate each wall-clock second at most once; firing disables
// the alarm, so a repeat call only matters for alarms re-enabled in between.
func (registry *Registry) EvaluateTick(now time.Time) []model.Alarm {
	var fired []model.Alarm
	for index := range registry.alarms {
		alarm := &registry.alarms[index]
		if !alarm.Enabled || !alarm.Matches(now) {
			continue
		}
		alarm.Enabled = false
		fired = append(fired, *alarm)
	}
	return fired
}

func (registry *Registry) indexOf(id string) int {
	for index, alarm := range registry.alarms {
		if alarm.ID == id {
			return index
		}
	}
	return -1
}
