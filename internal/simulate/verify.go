package simulate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/repentdaily/rating/internal/domain/rating"
	"github.com/repentdaily/rating/pkg/logger"
)

// ErrNotDrained is returned when the service does not finish scoring in time.
var ErrNotDrained = errors.New("service did not drain")

const drainPollInterval = 100 * time.Millisecond

// processedCount reads processed+failed from /stats.
func processedCount(ctx context.Context, client *Client) (int64, error) {
	stats, err := client.Stats(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, key := range []string{"processed", "failed"} {
		if v, ok := stats[key].(float64); ok {
			n += int64(v)
		}
	}
	return n, nil
}

// waitDrained polls /stats until target completions have been handled.
func waitDrained(ctx context.Context, client *Client, target int64, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		n, err := processedCount(ctx, client)
		if err == nil && n >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d handled", ErrNotDrained, n, target)
		case <-ticker.C:
		}
	}
}

// fetchRatings retrieves every user's record concurrently. Users that fail
// to load are left out of the result.
func fetchRatings(ctx context.Context, cfg *Config, client *Client, users []string) map[string]Rating {
	log := logger.Named("simulate")
	out := make(map[string]Rating, len(users))
	var mu sync.Mutex

	work := make(chan string, cfg.Workers*2)
	var wg sync.WaitGroup
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				r, err := client.Rating(ctx, id)
				if err != nil {
					if cfg.Verbose {
						log.Warn(ctx, "rating fetch failed", logger.String("user_id", id), logger.Error(err))
					}
					continue
				}
				mu.Lock()
				out[id] = r
				mu.Unlock()
			}
		}()
	}
	for _, id := range users {
		work <- id
	}
	close(work)
	wg.Wait()
	return out
}

// checkRecords verifies every fetched record against the tier table and,
// when exact is set, against the outcome counts the workload implies.
func checkRecords(ratings map[string]Rating, w *Workload, exact bool) []string {
	var violations []string
	for id, r := range ratings {
		if r.Rating < 0 {
			violations = append(violations, fmt.Sprintf("%s: negative rating %d", id, r.Rating))
		}
		if want := rating.ClassifyRank(r.Rating); r.Rank != want {
			violations = append(violations, fmt.Sprintf("%s: rank %q for rating %d, want %q", id, r.Rank, r.Rating, want))
		}
		if r.WinStreak > r.TotalWins {
			violations = append(violations, fmt.Sprintf("%s: win streak %d exceeds wins %d", id, r.WinStreak, r.TotalWins))
		}
		if exact && (r.TotalWins != w.Wins[id] || r.TotalLosses != w.Losses[id]) {
			violations = append(violations, fmt.Sprintf("%s: %d/%d wins/losses, want %d/%d",
				id, r.TotalWins, r.TotalLosses, w.Wins[id], w.Losses[id]))
		}
	}
	return violations
}

// checkLeaderboard verifies ordering and competition-style positions, and
// that each listed user's record agrees with its row.
func checkLeaderboard(entries []Entry, ratings map[string]Rating) []string {
	var violations []string
	for i, e := range entries {
		wantPos := i + 1
		if i > 0 {
			prev := entries[i-1]
			if e.Rating > prev.Rating {
				violations = append(violations, fmt.Sprintf("row %d: rating %d above row %d's %d", i, e.Rating, i-1, prev.Rating))
			}
			if e.Rating == prev.Rating {
				wantPos = prev.Position
			}
		}
		if e.Position != wantPos {
			violations = append(violations, fmt.Sprintf("row %d (%s): position %d, want %d", i, e.UserID, e.Position, wantPos))
		}
		if want := rating.ClassifyRank(e.Rating); e.Rank != want {
			violations = append(violations, fmt.Sprintf("row %d (%s): rank %q, want %q", i, e.UserID, e.Rank, want))
		}
		if r, ok := ratings[e.UserID]; ok {
			if r.Rating != e.Rating || r.Position != e.Position {
				violations = append(violations, fmt.Sprintf("%s: leaderboard %d@%d, record %d@%d",
					e.UserID, e.Rating, e.Position, r.Rating, r.Position))
			}
		}
	}

	if len(entries) > 0 {
		best := entries[0].Rating
		for id, r := range ratings {
			if r.Rating > best {
				violations = append(violations, fmt.Sprintf("%s: rating %d beats leaderboard top %d", id, r.Rating, best))
			}
		}
	}
	return violations
}
