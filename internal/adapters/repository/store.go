// Package repository holds users' rating records and answers leaderboard
// queries over them.
package repository

import (
	"context"

	"github.com/repentdaily/rating/internal/domain/model"
)

// Entry represents a leaderboard row. Position is 1 + the number of users
// rated strictly higher, so equal ratings share a position.
type Entry struct {
	Position int
	UserID   string
	Rating   int
	Rank     string
}

// Store provides read/write access to rating records.
type Store interface {
	// Apply runs fn against userID's record under the store's write lock,
	// creating the record at the initial rating when absent. If fn fails
	// nothing is stored.
	Apply(ctx context.Context, userID string, fn model.UpdateFunc) (model.RatingRecord, error)

	// Get returns a user's record or ErrNotFound.
	Get(ctx context.Context, userID string) (model.RatingRecord, error)

	// Position returns a user's leaderboard position or ErrNotFound.
	Position(ctx context.Context, userID string) (int, error)

	// TopN returns the top-n entries ordered by rating desc, user id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of users with a record.
	Count(ctx context.Context) int

	// Ratings returns every rating as of the last published snapshot. The
	// slice is shared and must not be modified.
	Ratings(ctx context.Context) []int

	// View returns a user's record and population ratings from a snapshot
	// that includes that record, or ErrNotFound.
	View(ctx context.Context, userID string) (model.RatingRecord, []int, error)

	Close() error
}
