package simulate

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Per-user completion probabilities are drawn from [minDiscipline, maxDiscipline].
const (
	minDiscipline = 0.2
	maxDiscipline = 0.95
)

// Workload is a generated set of completions and the outcome counts the
// service should end up with once every completion is scored once.
type Workload struct {
	Users       []string
	Completions []Completion
	// Wins and Losses count distinct completions per user.
	Wins   map[string]int
	Losses map[string]int
}

// Generate builds a workload. Each user gets a discipline level that sets how
// often they complete; habit streaks grow on completion and reset on a miss,
// so streak values sent to the service are the ones a real client would send.
func Generate(cfg *Config) *Workload {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	users := max(cfg.Users, 1)
	w := &Workload{
		Users:       make([]string, users),
		Completions: make([]Completion, 0, cfg.Events),
		Wins:        make(map[string]int, users),
		Losses:      make(map[string]int, users),
	}
	discipline := make([]float64, users)
	streaks := make([]int, users)
	for i := range w.Users {
		w.Users[i] = "user-" + uuid.NewString()
		discipline[i] = minDiscipline + rng.Float64()*(maxDiscipline-minDiscipline)
	}

	now := time.Now().UTC()
	for i := 0; i < cfg.Events; i++ {
		u := rng.IntN(users)
		id := w.Users[u]
		done := rng.Float64() < discipline[u]

		c := Completion{
			EventID:   uuid.NewString(),
			UserID:    id,
			Kind:      "todo",
			Completed: done,
			TS:        now.Add(time.Duration(i) * time.Millisecond).Format(time.RFC3339),
		}
		if rng.Float64() < cfg.HabitRatio {
			c.Kind = "habit"
			c.HabitStreak = streaks[u]
			if done {
				streaks[u]++
			} else {
				streaks[u] = 0
			}
		}
		if done {
			w.Wins[id]++
		} else {
			w.Losses[id]++
		}
		w.Completions = append(w.Completions, c)
	}
	return w
}

// Replays picks the completions to submit a second time.
func Replays(cfg *Config, completions []Completion) []Completion {
	if cfg.ReplayRatio <= 0 || len(completions) == 0 {
		return nil
	}
	n := min(int(float64(len(completions))*cfg.ReplayRatio), len(completions))
	out := make([]Completion, n)
	step := len(completions) / max(n, 1)
	for i := range out {
		out[i] = completions[i*step]
	}
	return out
}
