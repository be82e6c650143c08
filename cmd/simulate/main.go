// Command simulate load-tests a rating service and verifies its results.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/repentdaily/rating/internal/simulate"
	"github.com/repentdaily/rating/pkg/logger"
)

// Default configuration constants.
const (
	defaultUsers       = 1000
	defaultEvents      = 20000
	defaultHabitRatio  = 0.6
	defaultReplayRatio = 0.05
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 2 * time.Minute
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users   = flag.Int("users", defaultUsers, "Number of distinct users")
		events  = flag.Int("events", defaultEvents, "Number of completions to generate")
		habits  = flag.Float64("habits", defaultHabitRatio, "Share of completions that are habits")
		replay  = flag.Float64("replay", defaultReplayRatio, "Share of completions submitted twice")
		topN    = flag.Int("top", defaultTopN, "Leaderboard size to check")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent HTTP workers")
		timeout = flag.Duration("timeout", defaultTimeout, "Per-request timeout")
		settle  = flag.Duration("settle", defaultSettle, "Max wait for scoring to finish")
		seed    = flag.Uint64("seed", 0, "Generator seed, 0 for random")
		output  = flag.String("output", "", "Save generated completions to this JSON file")
		logFile = flag.String("log", "", "Also log to this file")
		verbose = flag.Bool("verbose", false, "Log per-request failures")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closer, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:     *baseURL,
		Users:       *users,
		Events:      *events,
		HabitRatio:  *habits,
		ReplayRatio: *replay,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		Settle:      *settle,
		Seed:        *seed,
		OutputFile:  *output,
		Verbose:     *verbose,
	}
	if _, err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		closer.Close()
		os.Exit(1)
	}
}
