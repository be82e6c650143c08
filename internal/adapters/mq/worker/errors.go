package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrStopped = errors.New("worker stopped")
	ErrScoring = errors.New("scoring failed")
	ErrApply   = errors.New("rating update failed")
)
