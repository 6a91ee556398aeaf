package model

import "errors"

var (
	// ErrInvalidTime indicates an alarm time outside 00:00:00-23:59:59.
	ErrInvalidTime = errors.New("invalid time")
	// ErrInvalidDuration indicates a non-positive countdown duration.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrNotFound indicates an operation on an unknown alarm id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyActive indicates a pomodoro start while a phase is running.
	ErrAlreadyActive = errors.New("pomodoro already active")
	// ErrIO indicates a persistence load or save failure.
	ErrIO = errors.New("persistence failure")
	// ErrStatsDrift indicates aggregated stats no longer match the session log.
	ErrStatsDrift = errors.New("stats drift from history")
)
