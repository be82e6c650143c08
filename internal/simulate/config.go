package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Users       int           // Number of distinct users
	Events      int           // Number of completions to generate
	HabitRatio  float64       // Share of completions that are habits, 0..1
	ReplayRatio float64       // Share of completions submitted twice, 0..1
	TopN        int           // Leaderboard size to fetch and check
	Workers     int           // Concurrent HTTP workers
	Timeout     time.Duration // Per-request timeout
	Settle      time.Duration // Max wait for the service to drain
	Seed        uint64        // Generator seed; 0 picks one from the clock
	OutputFile  string        // Where to save generated completions; "" skips
	Verbose     bool          // Log per-request failures
}

// Completion is the POST /completions payload.
type Completion struct {
	EventID     string `json:"event_id"`
	UserID      string `json:"user_id"`
	Kind        string `json:"kind"`
	Completed   bool   `json:"completed"`
	HabitStreak int    `json:"habit_streak"`
	TS          string `json:"ts"`
}

// Entry is a leaderboard row.
type Entry struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Rating   int    `json:"rating"`
	Rank     string `json:"rank"`
}

// Rating is the subset of GET /ratings/{user_id} the checks use.
type Rating struct {
	UserID      string `json:"user_id"`
	Rating      int    `json:"rating"`
	Rank        string `json:"rank"`
	Position    int    `json:"position"`
	WinStreak   int    `json:"win_streak"`
	TotalWins   int    `json:"total_wins"`
	TotalLosses int    `json:"total_losses"`
}

// AckResponse represents the response from completion submission.
type AckResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Submitted          int
	Accepted           int
	Duplicate          int
	Failed             int
	RatingsRetrieved   int
	LeaderboardEntries int
	Violations         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
