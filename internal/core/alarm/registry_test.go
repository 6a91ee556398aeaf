package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"tempo/internal/core/model"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, 3, 1, hour, minute, second, 0, time.Local)
}

func TestRegistry_AddDefaultsToEnabled(t *testing.T) {
	registry := NewRegistry()

	alarm, err := registry.Add(7, 30, 0, "  Wake ")
	require.NoError(t, err)
	assert.True(t, alarm.Enabled)
	assert.Equal(t, "Wake", alarm.Label)
	assert.NotEmpty(t, alarm.ID)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_AddRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name                 string
		hour, minute, second int
	}{
		{"hour too large", 24, 0, 0},
		{"negative hour", -1, 0, 0},
		{"minute too large", 0, 60, 0},
		{"second too large", 0, 0, 60},
		{"negative second", 0, 0, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			registry := NewRegistry()
			_, err := registry.Add(tc.hour, tc.minute, tc.second, "bad")
			assert.ErrorIs(t, err, model.ErrInvalidTime)
			assert.Zero(t, registry.Len())
		})
	}
}

func TestRegistry_RemoveAndToggleUnknownID(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Add(6, 0, 0, "")
	require.NoError(t, err)

	assert.ErrorIs(t, registry.Remove("missing"), model.ErrNotFound)
	_, err = registry.Toggle("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_RemoveKeepsOrder(t *testing.T) {
	registry := NewRegistry()
	first, _ := registry.Add(6, 0, 0, "first")
	second, _ := registry.Add(7, 0, 0, "second")
	third, _ := registry.Add(8, 0, 0, "third")

	require.NoError(t, registry.Remove(second.ID))

	list := registry.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, third.ID, list[1].ID)
}

func TestRegistry_Toggle(t *testing.T) {
	registry := NewRegistry()
	alarm, _ := registry.Add(6, 0, 0, "")

	toggled, err := registry.Toggle(alarm.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	toggled, err = registry.Toggle(alarm.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)
}

func TestRegistry_WakeScenario(t *testing.T) {
	registry := NewRegistry()
	alarm, err := registry.Add(7, 30, 0, "Wake")
	require.NoError(t, err)

	fired := registry.EvaluateTick(at(7, 30, 0))
	require.Len(t, fired, 1)
	assert.Equal(t, alarm.ID, fired[0].ID)
	assert.False(t, fired[0].Enabled)

	stored, err := registry.Get(alarm.ID)
	require.NoError(t, err)
	assert.False(t, stored.Enabled)

	assert.Empty(t, registry.EvaluateTick(at(7, 30, 0)))
}

func TestRegistry_ExactSecondOnly(t *testing.T) {
	registry := NewRegistry()
	_, _ = registry.Add(7, 30, 0, "Wake")

	assert.Empty(t, registry.EvaluateTick(at(7, 29, 59)))
	assert.Empty(t, registry.EvaluateTick(at(7, 30, 1)))
	assert.Equal(t, 1, len(registry.List()))
	assert.True(t, registry.List()[0].Enabled, "a skipped second is missed, not caught up")
}

func TestRegistry_SubSecondTimeStillMatches(t *testing.T) {
	registry := NewRegistry()
	_, _ = registry.Add(7, 30, 0, "Wake")

	fired := registry.EvaluateTick(at(7, 30, 0).Add(750 * time.Millisecond))
	assert.Len(t, fired, 1)
}

func TestRegistry_RestoreDropsInvalidAndFillsIDs(t *testing.T) {
	registry := NewRegistry()
	registry.Restore([]model.Alarm{
		{ID: "a", Hour: 7, Minute: 0, Enabled: true},
		{ID: "b", Hour: 25, Minute: 0, Enabled: true},
		{Hour: 8, Minute: 15, Enabled: false},
	})

	list := registry.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.NotEmpty(t, list[1].ID)
	assert.False(t, list[1].Enabled)
}

func TestRegistry_EnabledAlarmFiresExactlyOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hour := rapid.IntRange(0, 23).Draw(t, "hour")
		minute := rapid.IntRange(0, 59).Draw(t, "minute")
		second := rapid.IntRange(0, 59).Draw(t, "second")
		repeats := rapid.IntRange(1, 5).Draw(t, "repeats")

		registry := NewRegistry()
		alarm, err := registry.Add(hour, minute, second, "")
		if err != nil {
			t.Fatalf("add: %v", err)
		}

		total := 0
		for i := 0; i < repeats; i++ {
			total += len(registry.EvaluateTick(at(hour, minute, second)))
		}
		if total != 1 {
			t.Fatalf("fired %d times, want 1", total)
		}
		stored, _ := registry.Get(alarm.ID)
		if stored.Enabled {
			t.Fatalf("alarm still enabled after firing")
		}
	})
}

func TestRegistry_DisabledAlarmNeverFires(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hour := rapid.IntRange(0, 23).Draw(t, "hour")
		minute := rapid.IntRange(0, 59).Draw(t, "minute")
		second := rapid.IntRange(0, 59).Draw(t, "second")

		registry := NewRegistry()
		alarm, _ := registry.Add(hour, minute, second, "")
		if _, err := registry.Toggle(alarm.ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}

		tickHour := rapid.IntRange(0, 23).Draw(t, "tickHour")
		tickMinute := rapid.IntRange(0, 59).Draw(t, "tickMinute")
		tickSecond := rapid.IntRange(0, 59).Draw(t, "tickSecond")
		if fired := registry.EvaluateTick(at(tickHour, tickMinute, tickSecond)); len(fired) != 0 {
			t.Fatalf("disabled alarm fired")
		}
		if fired := registry.EvaluateTick(at(hour, minute, second)); len(fired) != 0 {
			t.Fatalf("disabled alarm fired at its own time")
		}
	})
}
