// Package stats folds completed pomodoro sessions into running totals.
package stats

import (
	"fmt"

	"tempo/internal/core/model"
)

// Aggregator owns the append-only session log and the stats derived from it.
// It is not safe for concurrent use.
type Aggregator struct {
	history []model.Session
	stats   model.Stats
}

// New creates an aggregator seeded with history. Stats are always recomputed
// from the log, so a persisted stats block never overrides it.
func New(history []model.Session) *Aggregator {
	aggregator := &Aggregator{
		history: append([]model.Session(nil), history...),
	}
	aggregator.stats = aggregator.Recompute()
	return aggregator
}

// Restore replaces the log and recomputes the totals.
func (aggregator *Aggregator) Restore(history []model.Session) {
	aggregator.history = append(aggregator.history[:0:0], history...)
	aggregator.stats = aggregator.Recompute()
}

// RecordSession appends a completed session and folds it into the totals.
func (aggregator *Aggregator) RecordSession(session model.Session) {
	aggregator.history = append(aggregator.history, session)
	fold(&aggregator.stats, session)
}

// Recompute rebuilds stats from the full log.
func (aggregator *Aggregator) Recompute() model.Stats {
	stats := model.NewStats()
	for _, session := range aggregator.history {
		fold(&stats, session)
	}
	return stats
}

// Verify reports ErrStatsDrift when the running totals disagree with a fold
// of the log.
func (aggregator *Aggregator) Verify() error {
	recomputed := aggregator.Recompute()
	if !aggregator.stats.Equal(recomputed) {
		return fmt.Errorf("verify stats: have %d sessions/%d min, log folds to %d/%d: %w",
			aggregator.stats.TotalSessions, aggregator.stats.TotalMinutes,
			recomputed.TotalSessions, recomputed.TotalMinutes, model.ErrStatsDrift)
	}
	return nil
}

// Reconcile compares a persisted stats block with the log. On mismatch it
// returns ErrStatsDrift; the aggregator keeps the recomputed totals either way.
func (aggregator *Aggregator) Reconcile(persisted model.Stats) error {
	if aggregator.stats.Equal(persisted) {
		return nil
	}
	return fmt.Errorf("reconcile stats: persisted %d sessions/%d min, log folds to %d/%d: %w",
		persisted.TotalSessions, persisted.TotalMinutes,
		aggregator.stats.TotalSessions, aggregator.stats.TotalMinutes, model.ErrStatsDrift)
}

// Stats returns a copy of the running totals.
func (aggregator *Aggregator) Stats() model.Stats {
	return aggregator.stats.Clone()
}

// ExportHistory returns the session log in insertion order.
func (aggregator *Aggregator) ExportHistory() []model.Session {
	return append([]model.Session(nil), aggregator.history...)
}

// SessionsOn counts sessions completed on date (YYYY-MM-DD).
func (aggregator *Aggregator) SessionsOn(date string) int {
	count := 0
	for _, session := range aggregator.history {
		if session.Date == date {
			count++
		}
	}
	return count
}

// SessionsSince counts sessions completed on or after date (YYYY-MM-DD).
func (aggregator *Aggregator) SessionsSince(date string) int {
	count := 0
	for _, session := range aggregator.history {
		if session.Date >= date {
			count++
		}
	}
	return count
}

func fold(stats *model.Stats, session model.Session) {
	if stats.ByTag == nil {
		stats.ByTag = make(map[string]model.TagStats)
	}
	stats.TotalSessions++
	stats.TotalMinutes += session.Minutes
	tagStats := stats.ByTag[session.Tag]
	tagStats.Count++
	tagStats.Minutes += session.Minutes
	stats.ByTag[session.Tag] = tagStats
}
