package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tempo/internal/core/model"
	"tempo/internal/core/timekeeper"
)

func TestClockTime(t *testing.T) {
	assert.Equal(t, "07:30:00", ClockTime(7, 30, 0, model.TimeFormat24))
	assert.Equal(t, "7:30:00 AM", ClockTime(7, 30, 0, model.TimeFormat12))
	assert.Equal(t, "12:00:05 AM", ClockTime(0, 0, 5, model.TimeFormat12))
	assert.Equal(t, "12:15:00 PM", ClockTime(12, 15, 0, model.TimeFormat12))
	assert.Equal(t, "11:59:59 PM", ClockTime(23, 59, 59, model.TimeFormat12))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "00:00", Duration(-time.Second))
	assert.Equal(t, "00:59", Duration(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "25:00", Duration(25*time.Minute))
	assert.Equal(t, "1:00:01", Duration(time.Hour+time.Second))
}

func TestMinutes(t *testing.T) {
	assert.Equal(t, "25m", Minutes(25))
	assert.Equal(t, "1h 05m", Minutes(65))
}

func TestFormatAlarms(t *testing.T) {
	out := FormatAlarms([]model.Alarm{
		{ID: "0123456789abcdef", Hour: 19, Minute: 5, Label: "Dinner", Enabled: true},
		{ID: "short", Hour: 6, Label: "Gym"},
	}, model.TimeFormat12)

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "7:05:00 PM")
	assert.Contains(t, out, "Dinner")
	assert.Contains(t, out, "off")
	assert.Equal(t, "No alarms.\n", FormatAlarms(nil, model.TimeFormat24))
}

func TestFormatStats_SortsByMinutes(t *testing.T) {
	out := FormatStats(model.Stats{
		TotalSessions: 3,
		TotalMinutes:  75,
		ByTag: map[string]model.TagStats{
			"📚 Study": {Count: 1, Minutes: 25},
			"💻 Code":  {Count: 2, Minutes: 50},
		},
	}, 2, 3)

	assert.Contains(t, out, "POMODORO STATS")
	assert.Contains(t, out, "Week: ")
	assert.Contains(t, out, "1h 15m")
	assert.Less(t, strings.Index(out, "💻 Code"), strings.Index(out, "📚 Study"))
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"long cell", "x"}, {"s", "y"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, strings.Index(lines[2], "x"), strings.Index(lines[3], "y"))
}

func TestStatusLine(t *testing.T) {
	status := timekeeper.Status{
		Now: time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
		Pomodoro: model.PhaseState{
			Phase:     model.PhaseWorking,
			ActiveTag: "💻 Code",
			Timer:     model.TimerState{Mode: model.TimerRunning, Remaining: 24*time.Minute + 30*time.Second},
		},
		Stopwatch: model.StopwatchState{Mode: model.StopwatchPaused, Elapsed: 90 * time.Second},
	}

	assert.Equal(t, "14:00:00 · 💻 Code 24:30 · Stopwatch 01:30 (paused)", StatusLine(status, model.TimeFormat24))
}
