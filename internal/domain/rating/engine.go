package rating

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a completion kind is neither habit nor todo.
var ErrUnknownKind = errors.New("unknown completion kind")

// Kind identifies which scoring rule a completion uses.
type Kind string

// Supported completion kinds.
const (
	KindHabit Kind = "habit"
	KindTodo  Kind = "todo"
)

// ParseKind normalizes s into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHabit, KindTodo:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Input is one completion to score against the actor's current record.
type Input struct {
	Kind          Kind
	IsWin         bool
	CurrentRating int
	// HabitStreak is the habit's streak length before the event.
	HabitStreak int
	// WinStreak is the actor's win-streak counter before the event.
	WinStreak int
}

// Change is the result of scoring one completion.
type Change struct {
	Delta     int
	NewRating int
	// OpponentRating is zero for todos, which have no opponent.
	OpponentRating int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandomSource sets the jitter source for habit opponents.
func WithRandomSource(src RandomSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.src = src
		}
	}
}

// WithSeed makes habit opponents reproducible. A zero seed keeps the default
// process-wide generator.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		if seed != 0 {
			e.src = NewSeededSource(seed)
		}
	}
}

// Engine scores completions. It is safe for concurrent use as long as its
// RandomSource is.
type Engine struct {
	src RandomSource
}

// NewEngine builds an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{src: globalSource{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HabitCompletionRatingChange scores a habit completion: it draws an opponent
// from the habit's streak and runs the ELO update against it.
func (e *Engine) HabitCompletionRatingChange(currentRating, currentStreak int, isWin bool, winStreakCounter int) Change {
	opponent := HabitOpponentRating(currentStreak, e.src)
	delta := ComputeEloChange(currentRating, opponent, isWin, winStreakCounter)
	return Change{
		Delta:          delta,
		NewRating:      ApplyDelta(currentRating, delta),
		OpponentRating: opponent,
	}
}

// TodoCompletionChange applies the flat todo rule to currentRating.
func (e *Engine) TodoCompletionChange(currentRating int, isWin bool) Change {
	delta := TodoCompletionRatingChange(isWin)
	return Change{Delta: delta, NewRating: ApplyDelta(currentRating, delta)}
}

// Score dispatches in to the rule for its kind.
func (e *Engine) Score(in Input) (Change, error) {
	switch in.Kind {
	case KindHabit:
		return e.HabitCompletionRatingChange(in.CurrentRating, in.HabitStreak, in.IsWin, in.WinStreak), nil
	case KindTodo:
		return e.TodoCompletionChange(in.CurrentRating, in.IsWin), nil
	default:
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownKind, in.Kind)
	}
}
