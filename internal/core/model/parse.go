package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock accepts HH:MM or HH:MM:SS in 24-hour time.
func ParseClock(value string) (hour, minute, second int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("time %q: want HH:MM or HH:MM:SS: %w", value, ErrInvalidTime)
	}
	fields := make([]int, 3)
	for i, part := range parts {
		number, convErr := strconv.Atoi(part)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("time %q: %w", value, ErrInvalidTime)
		}
		fields[i] = number
	}
	if err := ValidateClock(fields[0], fields[1], fields[2]); err != nil {
		return 0, 0, 0, err
	}
	return fields[0], fields[1], fields[2], nil
}

// ParseTimeFormat accepts "12" or "24".
func ParseTimeFormat(value string) (int, error) {
	format, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || (format != TimeFormat12 && format != TimeFormat24) {
		return 0, fmt.Errorf("time format %q: want 12 or 24", value)
	}
	return format, nil
}

// ParsePresets parses a comma-separated list of positive Go durations.
func ParsePresets(value string) ([]time.Duration, error) {
	var presets []time.Duration
	for _, part := range SplitList(value) {
		preset, err := time.ParseDuration(part)
		if err != nil || preset <= 0 {
			return nil, fmt.Errorf("timer preset %q: %w", part, ErrInvalidDuration)
		}
		presets = append(presets, preset)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("timer presets are empty: %w", ErrInvalidDuration)
	}
	return presets, nil
}

// FormatPresets is the inverse of ParsePresets.
func FormatPresets(presets []time.Duration) string {
	parts := make([]string, 0, len(presets))
	for _, preset := range presets {
		parts = append(parts, preset.String())
	}
	return strings.Join(parts, ",")
}

// SplitList splits on commas, trimming blanks and dropping empty items.
func SplitList(value string) []string {
	items := []string{}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
