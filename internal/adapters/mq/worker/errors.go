package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrQueueRejected = errors.New("compute queue rejected job")
	ErrStopped       = errors.New("worker pool stopped")
	ErrJobPanicked   = errors.New("job panicked")
)
