package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("user not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidRecord = errors.New("invalid rating record")
	ErrClosed        = errors.New("store closed")
)
