package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidEvent = errors.New("invalid completion")
	ErrBackpressure = errors.New("completion queue full")
)
