package formatter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"tempo/internal/core/model"
	"tempo/internal/core/timekeeper"
)

// TruncID shortens an alarm ID for display.
func TruncID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// FormatAlarms renders the alarm list.
func FormatAlarms(alarms []model.Alarm, format int) string {
	if len(alarms) == 0 {
		return Dim("No alarms.") + "\n"
	}
	rows := make([][]string, 0, len(alarms))
	for _, alarm := range alarms {
		state := StyleGreen.Render("on")
		if !alarm.Enabled {
			state = StyleDim.Render("off")
		}
		rows = append(rows, []string{TruncID(alarm.ID), AlarmTime(alarm, format), state, alarm.Label})
	}
	return RenderTable([]string{"ID", "TIME", "STATE", "LABEL"}, rows)
}

// FormatStats renders totals followed by a per-tag table, largest first.
func FormatStats(stats model.Stats, today, week int) string {
	var b strings.Builder
	b.WriteString(Header("Pomodoro stats") + "\n")
	fmt.Fprintf(&b, "Sessions: %s  Focus: %s  Today: %s  Week: %s\n",
		Bold(fmt.Sprint(stats.TotalSessions)), Bold(Minutes(stats.TotalMinutes)),
		Bold(fmt.Sprint(today)), Bold(fmt.Sprint(week)))
	if len(stats.ByTag) == 0 {
		return b.String()
	}

	tags := make([]string, 0, len(stats.ByTag))
	for tag := range stats.ByTag {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b string) int {
		if byMinutes := cmp.Compare(stats.ByTag[b].Minutes, stats.ByTag[a].Minutes); byMinutes != 0 {
			return byMinutes
		}
		return cmp.Compare(a, b)
	})

	rows := make([][]string, 0, len(tags))
	for _, tag := range tags {
		label := tag
		if label == "" {
			label = Dim("(untagged)")
		}
		rows = append(rows, []string{label, fmt.Sprint(stats.ByTag[tag].Count), Minutes(stats.ByTag[tag].Minutes)})
	}
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"TAG", "SESSIONS", "FOCUS"}, rows))
	return b.String()
}

// StatusLine summarizes whatever is active, e.g. for the headless loop or
// the tray title.
func StatusLine(status timekeeper.Status, format int) string {
	parts := []string{WallClock(status.Now, format)}
	switch status.Pomodoro.Phase {
	case model.PhaseWorking:
		label := "Focus"
		if status.Pomodoro.ActiveTag != "" {
			label = status.Pomodoro.ActiveTag
		}
		parts = append(parts, fmt.Sprintf("%s %s", label, Duration(status.Pomodoro.Timer.Remaining)))
	case model.PhaseBreak:
		parts = append(parts, "Break "+Duration(status.Pomodoro.Timer.Remaining))
	}
	switch status.Timer.Mode {
	case model.TimerRunning:
		parts = append(parts, "Timer "+Duration(status.Timer.Remaining))
	case model.TimerPaused:
		parts = append(parts, "Timer "+Duration(status.Timer.Remaining)+" (paused)")
	case model.TimerFinished:
		parts = append(parts, "Timer done")
	}
	switch status.Stopwatch.Mode {
	case model.StopwatchRunning:
		parts = append(parts, "Stopwatch "+Duration(status.Stopwatch.Elapsed))
	case model.StopwatchPaused:
		parts = append(parts, "Stopwatch "+Duration(status.Stopwatch.Elapsed)+" (paused)")
	}
	return strings.Join(parts, " · ")
}
