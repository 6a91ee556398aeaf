package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"tempo/internal/core/model"
)

func session(tag string, minutes int) model.Session {
	completed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return model.Session{
		Date:        completed.Format(model.DateLayout),
		Tag:         tag,
		StartedAt:   completed.Add(-time.Duration(minutes) * time.Minute),
		CompletedAt: completed,
		Minutes:     minutes,
	}
}

func TestAggregator_RecordSession(t *testing.T) {
	aggregator := New(nil)

	aggregator.RecordSession(session("💻 Code", 25))
	aggregator.RecordSession(session("", 25))
	aggregator.RecordSession(session("💻 Code", 25))

	stats := aggregator.Stats()
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 75, stats.TotalMinutes)
	assert.Equal(t, model.TagStats{Count: 2, Minutes: 50}, stats.ByTag["💻 Code"])
	assert.Equal(t, model.TagStats{Count: 1, Minutes: 25}, stats.ByTag[""], "untagged sessions have their own bucket")
	require.NoError(t, aggregator.Verify())
}

func TestAggregator_SessionsOnAndSince(t *testing.T) {
	aggregator := New([]model.Session{
		{Date: "2026-02-27", Minutes: 25},
		{Date: "2026-03-01", Minutes: 25},
		{Date: "2026-03-02", Minutes: 25},
	})

	assert.Equal(t, 1, aggregator.SessionsOn("2026-03-01"))
	assert.Equal(t, 2, aggregator.SessionsSince("2026-03-01"))
	assert.Equal(t, 3, aggregator.SessionsSince("2026-01-01"))
	assert.Zero(t, aggregator.SessionsSince("2026-04-01"))
}

func TestAggregator_SeedsFromHistory(t *testing.T) {
	history := []model.Session{session("a", 25), session("b", 10)}
	aggregator := New(history)

	history[0].Tag = "mutated"
	exported := aggregator.ExportHistory()
	require.Len(t, exported, 2)
	assert.Equal(t, "a", exported[0].Tag, "aggregator keeps its own copy of the log")
	assert.Equal(t, 35, aggregator.Stats().TotalMinutes)
}

func TestAggregator_ExportHistoryIsReadOnly(t *testing.T) {
	aggregator := New(nil)
	aggregator.RecordSession(session("a", 25))

	exported := aggregator.ExportHistory()
	exported[0].Tag = "changed"

	assert.Equal(t, "a", aggregator.ExportHistory()[0].Tag)
}

func TestAggregator_StatsIsACopy(t *testing.T) {
	aggregator := New(nil)
	aggregator.RecordSession(session("a", 25))

	stats := aggregator.Stats()
	stats.ByTag["a"] = model.TagStats{Count: 100}

	assert.Equal(t, 1, aggregator.Stats().ByTag["a"].Count)
}

func TestAggregator_Reconcile(t *testing.T) {
	aggregator := New([]model.Session{session("a", 25)})

	persisted := model.Stats{TotalSessions: 1, TotalMinutes: 25, ByTag: map[string]model.TagStats{"a": {Count: 1, Minutes: 25}}}
	assert.NoError(t, aggregator.Reconcile(persisted))

	persisted.TotalMinutes = 40
	assert.ErrorIs(t, aggregator.Reconcile(persisted), model.ErrStatsDrift)
	assert.Equal(t, 25, aggregator.Stats().TotalMinutes, "log wins over a drifted stats block")
}

func TestAggregator_SessionsOn(t *testing.T) {
	aggregator := New(nil)
	aggregator.RecordSession(session("a", 25))
	other := session("a", 25)
	other.Date = "2026-03-02"
	aggregator.RecordSession(other)

	assert.Equal(t, 1, aggregator.SessionsOn("2026-03-01"))
	assert.Equal(t, 0, aggregator.SessionsOn("2026-02-28"))
}

func TestAggregator_FoldInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tags := []string{"", "💻 Code", "📚 Study", "misc"}
		count := rapid.IntRange(0, 50).Draw(t, "count")

		aggregator := New(nil)
		wantMinutes := 0
		wantCounts := make(map[string]int)
		for i := 0; i < count; i++ {
			tag := rapid.SampledFrom(tags).Draw(t, "tag")
			minutes := rapid.IntRange(1, 60).Draw(t, "minutes")
			aggregator.RecordSession(session(tag, minutes))
			wantMinutes += minutes
			wantCounts[tag]++
		}

		stats := aggregator.Stats()
		if stats.TotalSessions != count {
			t.Fatalf("total sessions %d, want %d", stats.TotalSessions, count)
		}
		if stats.TotalMinutes != wantMinutes {
			t.Fatalf("total minutes %d, want %d", stats.TotalMinutes, wantMinutes)
		}
		for _, tag := range tags {
			if stats.ByTag[tag].Count != wantCounts[tag] {
				t.Fatalf("tag %q count %d, want %d", tag, stats.ByTag[tag].Count, wantCounts[tag])
			}
		}
		if !stats.Equal(aggregator.Recompute()) {
			t.Fatalf("incremental stats drifted from recompute")
		}
	})
}
