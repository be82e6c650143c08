// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/repentdaily/rating/internal/domain/rating"
)

// CompletionEvent is a user marking a habit or todo complete (a win) or
// incomplete (a loss). Fields mirror the OpenAPI schema for /completions.
type CompletionEvent struct {
	EventID   string      // unique id for idempotency
	UserID    string      // actor whose rating moves
	Kind      rating.Kind // habit or todo
	Completed bool        // true is a win
	// HabitStreak is the habit's streak length before this event. Ignored
	// for todos.
	HabitStreak int
	TS          time.Time
}

// RatingRecord is a user's persisted competitive state. Rank is always
// rating.ClassifyRank(Rating); mutate through Apply to keep it that way.
type RatingRecord struct {
	UserID        string    `json:"user_id"`
	Rating        int       `json:"rating"`
	Rank          string    `json:"rank"`
	WinStreak     int       `json:"win_streak"`
	BestWinStreak int       `json:"best_win_streak"`
	TotalWins     int       `json:"total_wins"`
	TotalLosses   int       `json:"total_losses"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewRatingRecord creates a record for userID at initialRating.
func NewRatingRecord(userID string, initialRating int) RatingRecord {
	r := max(initialRating, 0)
	return RatingRecord{
		UserID: userID,
		Rating: r,
		Rank:   rating.ClassifyRank(r),
	}
}

// Outcome is one scored completion ready to apply to a record.
type Outcome struct {
	Win   bool
	Delta int
	At    time.Time
}

// Apply returns the record after o: the rating moves by o.Delta floored at
// zero, the rank is re-derived, and the streak and lifetime counters update.
func (r RatingRecord) Apply(o Outcome) RatingRecord {
	r.Rating = rating.ApplyDelta(r.Rating, o.Delta)
	r.Rank = rating.ClassifyRank(r.Rating)

	if o.Win {
		r.WinStreak++
		r.TotalWins++
		r.BestWinStreak = max(r.BestWinStreak, r.WinStreak)
	} else {
		r.WinStreak = 0
		r.TotalLosses++
	}
	if !o.At.IsZero() {
		r.UpdatedAt = o.At
	}
	return r
}

// Consistent reports whether Rank matches Rating.
func (r RatingRecord) Consistent() bool {
	return r.Rank == rating.ClassifyRank(r.Rating)
}

// Input builds the engine input for e against the record's current state.
func (r RatingRecord) Input(e CompletionEvent) rating.Input { //nolint:gocritic // hugeParam: events are passed by value through the queue
	return rating.Input{
		Kind:          e.Kind,
		IsWin:         e.Completed,
		CurrentRating: r.Rating,
		HabitStreak:   e.HabitStreak,
		WinStreak:     r.WinStreak,
	}
}

// UpdateFunc turns a user's current record into the next one. Returning an
// error leaves the stored record unchanged.
type UpdateFunc func(current RatingRecord) (RatingRecord, error)
