// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and REPENT_* env vars over the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// metricName matches the Prometheus name charset without colons.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory completion queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many completion ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// InitialRating is assigned to a user on their first completion.
	InitialRating int `koanf:"initial_rating"`

	// RandomSeed pins habit opponent jitter; 0 uses the process generator.
	RandomSeed uint64 `koanf:"random_seed"`

	// DistributionBuckets is the histogram width used by /competition.
	DistributionBuckets int `koanf:"distribution_buckets"`

	// SnapshotIntervalMS controls how often the population snapshot is rebuilt.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are attached to every metric, e.g. env or region.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsLatencyBuckets overrides the latency histogram buckets, in seconds.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		EventQueueSize:      100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
		InitialRating:       1000,
		RandomSeed:          0,
		DistributionBuckets: 20,
		SnapshotIntervalMS:  500,
		MetricsNamespace:    "repentdaily",
		MetricsSubsystem:    "rating",
	}
}

// Validate reports the first field that cannot run the service.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.EventQueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.InitialRating < 0:
		return fmt.Errorf("%w: initial_rating must not be negative, got %d", ErrInvalidConfig, c.InitialRating)
	case c.DistributionBuckets <= 0:
		return fmt.Errorf("%w: distribution_buckets must be positive, got %d", ErrInvalidConfig, c.DistributionBuckets)
	case c.SnapshotIntervalMS <= 0:
		return fmt.Errorf("%w: snapshot_interval_ms must be positive, got %d", ErrInvalidConfig, c.SnapshotIntervalMS)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return c.validateMetrics()
}

func (c *Config) validateMetrics() error {
	if !metricName.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, c.MetricsNamespace)
	}
	if !metricName.MatchString(c.MetricsSubsystem) {
		return fmt.Errorf("%w: metrics_subsystem %q is not a valid metric name", ErrInvalidConfig, c.MetricsSubsystem)
	}
	for k := range c.MetricsLabels {
		if !metricName.MatchString(k) || strings.HasPrefix(k, "__") {
			return fmt.Errorf("%w: metrics_labels key %q is not a valid label name", ErrInvalidConfig, k)
		}
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}
