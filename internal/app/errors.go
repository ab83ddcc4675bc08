package app

import "errors"

var (
	// ErrNotStarted is returned when the engine is used before Start.
	ErrNotStarted = errors.New("engine not started")
	// ErrStopped is returned when the engine is used after Stop.
	ErrStopped = errors.New("engine stopped")
)
