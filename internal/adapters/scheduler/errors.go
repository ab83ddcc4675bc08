package scheduler

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrAlreadyStarted  = errors.New("scheduler already started")
	ErrNoStore         = errors.New("store unavailable")
)
