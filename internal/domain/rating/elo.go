// Package rating converts completion outcomes into ELO-style rating changes
// and classifies ratings into rank tiers.
//
// Every function here is pure and total: negative ratings clamp to zero and
// nothing returns an error. Randomness only enters through RandomSource.
package rating

import "math"

// ELO model constants.
const (
	// KFactor controls rating volatility.
	KFactor = 32
	// eloSpread is the rating gap at which the favourite is 10x more likely to win.
	eloSpread = 400

	streakStep          = 0.1
	maxStreakMultiplier = 2.0
)

// difficultyStep is one step of the diminishing-returns table.
type difficultyStep struct {
	below      int
	multiplier float64
}

// difficultySteps must stay ascending by below. Ratings at or above the last
// threshold use topDifficultyMultiplier.
var difficultySteps = [...]difficultyStep{
	{below: 1400, multiplier: 1.2},
	{below: 1700, multiplier: 1.0},
	{below: 2000, multiplier: 0.9},
	{below: 2300, multiplier: 0.8},
	{below: 2600, multiplier: 0.7},
}

const topDifficultyMultiplier = 0.6

// ExpectedScore is the logistic probability that an actor rated current beats
// an opponent rated opponent.
func ExpectedScore(current, opponent int) float64 {
	return 1 / (1 + math.Pow(10, (float64(opponent)-float64(current))/eloSpread))
}

// DifficultyMultiplier scales rating changes down as the actor climbs.
func DifficultyMultiplier(current int) float64 {
	for _, s := range difficultySteps {
		if current < s.below {
			return s.multiplier
		}
	}
	return topDifficultyMultiplier
}

// StreakMultiplier rewards sustained win streaks, capped at 2x. Streaks of
// zero or one earn nothing extra.
func StreakMultiplier(winStreak int) float64 {
	if winStreak <= 1 {
		return 1
	}
	return math.Min(float64(winStreak)*streakStep+1, maxStreakMultiplier)
}

// ComputeEloChange returns the signed rating delta for one outcome.
//
// The streak multiplier only applies to wins; the difficulty multiplier
// applies to both. The result is rounded half up. Callers apply the delta
// with ApplyDelta so the rating never drops below zero.
func ComputeEloChange(currentRating, opponentRating int, isWin bool, streakMultiplierInput int) int {
	current := clampRating(currentRating)

	actual := 0.0
	if isWin {
		actual = 1
	}
	delta := KFactor * (actual - ExpectedScore(current, opponentRating))
	if isWin {
		delta *= StreakMultiplier(streakMultiplierInput)
	}
	delta *= DifficultyMultiplier(current)

	return roundHalfUp(delta)
}

// ApplyDelta returns current+delta floored at zero and saturating at
// math.MaxInt.
func ApplyDelta(current, delta int) int {
	current = clampRating(current)
	if delta > 0 && current > math.MaxInt-delta {
		return math.MaxInt
	}
	return clampRating(current + delta)
}

// TodoCompletionRatingChange is the flat todo rule: +1 for completing, -1 for
// un-completing. It never consults ratings, streaks or opponents.
func TodoCompletionRatingChange(isWin bool) int {
	if isWin {
		return 1
	}
	return -1
}

func clampRating(r int) int {
	if r < 0 {
		return 0
	}
	return r
}

// roundHalfUp rounds .5 toward positive infinity, so -19.5 becomes -19.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
