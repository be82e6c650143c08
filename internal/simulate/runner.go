// Package simulate drives a running rating service with generated habit and
// todo completions and checks that what it serves back is consistent.
package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/repentdaily/rating/pkg/logger"
)

// ErrInconsistent is returned when verification finds violations.
var ErrInconsistent = errors.New("inconsistent results")

const (
	directoryPermission = 0o750
	maxLoggedViolations = 20
	percentage          = 100
)

// Run executes the complete simulation.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("events", cfg.Events),
		logger.Int("workers", cfg.Workers),
		logger.Float64("habitRatio", cfg.HabitRatio),
		logger.Float64("replayRatio", cfg.ReplayRatio))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	baseline, err := processedCount(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("read baseline stats: %w", err)
	}

	w := Generate(cfg)
	stats.Generated = len(w.Completions)
	log.Info(ctx, "generated completions", logger.Int("count", stats.Generated), logger.Int("users", len(w.Users)))

	first := submitAll(ctx, cfg, client, w.Completions)
	replay := submitAll(ctx, cfg, client, Replays(cfg, w.Completions))
	stats.Submitted = int(first.submitted + replay.submitted)
	stats.Accepted = int(first.accepted + replay.accepted)
	stats.Duplicate = int(first.duplicate + replay.duplicate)
	stats.Failed = int(first.failed + replay.failed)
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed))

	if err := waitDrained(ctx, client, baseline+int64(stats.Accepted), cfg.Settle); err != nil {
		return stats, err
	}

	active := make([]string, 0, len(w.Users))
	for _, id := range w.Users {
		if w.Wins[id]+w.Losses[id] > 0 {
			active = append(active, id)
		}
	}
	ratings := fetchRatings(ctx, cfg, client, active)
	stats.RatingsRetrieved = len(ratings)

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)

	// Outcome counts are only exact when every completion landed once.
	exact := stats.Failed == 0 && len(ratings) == len(active)
	violations := append(checkRecords(ratings, w, exact), checkLeaderboard(board, ratings)...)
	stats.Violations = len(violations)

	if err := saveCompletions(cfg.OutputFile, w.Completions); err != nil {
		log.Warn(ctx, "failed to save completions", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if len(violations) > 0 {
		for _, v := range violations[:min(len(violations), maxLoggedViolations)] {
			log.Error(ctx, "violation", logger.String("detail", v))
		}
		return stats, fmt.Errorf("%w: %d violations", ErrInconsistent, len(violations))
	}
	log.Info(ctx, "simulation passed")
	return stats, nil
}

// saveCompletions writes the generated completions as a JSON array.
func saveCompletions(filename string, completions []Completion) error {
	if filename == "" {
		return nil
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(completions); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write completions: %w", err)
	}
	return f.Close()
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentage
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("ratingsRetrieved", stats.RatingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("submitsPerSecond", perSecond))
}
