package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/repentdaily/rating/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.InitialRating, convey.ShouldEqual, 1000)
			convey.So(cfg.RandomSeed, convey.ShouldEqual, 0)
			convey.So(cfg.DistributionBuckets, convey.ShouldEqual, 20)
			convey.So(cfg.SnapshotIntervalMS, convey.ShouldEqual, 500)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "repentdaily")
			convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "rating")
			convey.So(cfg.MetricsLabels, convey.ShouldBeEmpty)
			convey.So(cfg.MetricsLatencyBuckets, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := map[string]func(*config.Config){
			"addr must not be empty":           func(c *config.Config) { c.Addr = "" },
			"queue_size must be positive":      func(c *config.Config) { c.EventQueueSize = 0 },
			"worker_count must be positive":    func(c *config.Config) { c.WorkerCount = -1 },
			"dedupe_size must not be negative": func(c *config.Config) { c.DedupeSize = -5 },
			"max_leaderboard_limit":            func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"initial_rating":                   func(c *config.Config) { c.InitialRating = -1 },
			"distribution_buckets":             func(c *config.Config) { c.DistributionBuckets = 0 },
			"snapshot_interval_ms":             func(c *config.Config) { c.SnapshotIntervalMS = 0 },
			"log_format":                       func(c *config.Config) { c.LogFormat = "xml" },
			"metrics_namespace":                func(c *config.Config) { c.MetricsNamespace = "repent-daily" },
			"metrics_subsystem":                func(c *config.Config) { c.MetricsSubsystem = "" },
			"metrics_labels key":               func(c *config.Config) { c.MetricsLabels = map[string]string{"__env": "x"} },
			"metrics_latency_buckets":          func(c *config.Config) { c.MetricsLatencyBuckets = []float64{0.1, 0.1} },
		}

		for want, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, want)
		}
	})

	convey.Convey("Given an unbounded dedupe cache", t, func() {
		cfg := config.New()
		cfg.DedupeSize = 0

		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
