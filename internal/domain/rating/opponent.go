package rating

import (
	"math/rand/v2"
	"sync"
)

// Habit opponent model constants.
const (
	opponentBase      = 1000
	opponentPerStreak = 50
	opponentJitter    = 100
	minOpponentRating = 800
	maxOpponentRating = 2500
	// streaks past this already pin the opponent at maxOpponentRating.
	maxCountedStreak = 64
)

// RandomSource yields uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// globalSource uses the process-wide math/rand/v2 generator, which is safe
// for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource serializes access to a non-concurrent generator.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSeededSource returns a deterministic RandomSource safe for use by
// multiple goroutines.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // rating jitter is not security sensitive
}

// HabitOpponentRating turns a habit streak into a synthetic opponent: longer
// streaks are harder opponents. The result carries a uniform jitter of
// ±100 and is clamped to [800, 2500]. A nil src uses the global generator.
func HabitOpponentRating(streakLength int, src RandomSource) int {
	if src == nil {
		src = globalSource{}
	}
	streakLength = max(0, min(streakLength, maxCountedStreak))

	r := opponentBase + streakLength*opponentPerStreak
	r += src.IntN(2*opponentJitter+1) - opponentJitter

	switch {
	case r < minOpponentRating:
		return minOpponentRating
	case r > maxOpponentRating:
		return maxOpponentRating
	}
	return r
}
