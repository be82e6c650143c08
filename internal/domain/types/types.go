// Package types contains common types used across the application
package types

import (
	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/internal/domain/rating"
	"github.com/repentdaily/rating/internal/domain/stats"
)

// Entry represents a leaderboard row
type Entry struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Rating   int    `json:"rating"`
	Rank     string `json:"rank"`
}

// RatingView is a user's record plus where it sits in the tier table.
type RatingView struct {
	model.RatingRecord
	Position int             `json:"position"`
	Progress rating.Progress `json:"progress"`
	NextTier *rating.Tier    `json:"next_tier,omitempty"`
}

// NewRatingView derives progress and next tier from rec.
func NewRatingView(rec model.RatingRecord, position int) RatingView {
	v := RatingView{
		RatingRecord: rec,
		Position:     position,
		Progress:     rating.TierProgress(rec.Rating),
	}
	if next, ok := rating.NextTier(rec.Rating); ok {
		v.NextTier = &next
	}
	return v
}

// Competition is the competition page payload for one user.
type Competition struct {
	UserID       string            `json:"user_id"`
	Rating       int               `json:"rating"`
	Rank         string            `json:"rank"`
	Summary      stats.Summary     `json:"summary"`
	Distribution []stats.Bucket    `json:"distribution"`
	Tiers        []stats.TierCount `json:"tiers"`
}
