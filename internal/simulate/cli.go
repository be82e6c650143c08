package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/repentdaily/rating/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger on stdout and, when logFile is
// set, on that file too. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if logFile == "" {
		return nopCloser{}, logger.InitWithOptions(logger.Options{Level: level})
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithOptions(logger.Options{Level: level, Writer: io.MultiWriter(os.Stdout, file)}); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`RepentDaily Rating Simulator
============================

Submits generated habit and todo completions to a running rating service,
waits for them to be scored, then checks ratings, ranks and the leaderboard
for consistency.

Usage:
  simulate [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -users int         Number of distinct users (default 1000)
  -events int        Number of completions to generate (default 20000)
  -habits float      Share of completions that are habits (default 0.6)
  -replay float      Share of completions submitted twice (default 0.05)
  -top int           Leaderboard size to check (default 50)
  -workers int       Concurrent HTTP workers (default CPU cores * 2)
  -timeout duration  Per-request timeout (default 30s)
  -settle duration   Max wait for scoring to finish (default 2m)
  -seed uint         Generator seed, 0 for random
  -output string     Save generated completions to this JSON file
  -log string        Also log to this file
  -verbose           Log per-request failures
  -help              Show this help message

Replays are only reported as duplicates while the service's dedupe window
(dedupe_size) holds them; keep it above -events for exact checks.
`)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
