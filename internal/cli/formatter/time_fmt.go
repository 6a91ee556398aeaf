package formatter

import (
	"fmt"
	"time"

	"tempo/internal/core/model"
)

// ClockTime renders hour/minute/second in the user's 12h or 24h format.
func ClockTime(hour, minute, second, format int) string {
	if format != model.TimeFormat12 {
		return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}
	return fmt.Sprintf("%d:%02d:%02d %s", displayHour, minute, second, suffix)
}

// WallClock renders a time of day.
func WallClock(now time.Time, format int) string {
	hour, minute, second := now.Clock()
	return ClockTime(hour, minute, second, format)
}

// AlarmTime renders an alarm's trigger time.
func AlarmTime(alarm model.Alarm, format int) string {
	return ClockTime(alarm.Hour, alarm.Minute, alarm.Second, format)
}

// Duration renders mm:ss below an hour and h:mm:ss above. Sub-second
// remainders are truncated; negatives render as zero.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours, minutes, seconds := total/3600, (total/60)%60, total%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Minutes renders a minute count as "1h 05m" or "25m".
func Minutes(total int) string {
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}
