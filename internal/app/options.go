package service

import (
	"time"

	"github.com/repentdaily/rating/internal/domain/rating"
	"github.com/repentdaily/rating/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the completion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many completion ids are remembered. Zero keeps
// every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithInitialRating sets the rating a user starts from.
func WithInitialRating(r int) Option {
	return func(s *Service) {
		if r >= 0 {
			s.initialRating = r
		}
	}
}

// WithRandomSeed pins habit opponent jitter. Zero keeps the process generator.
func WithRandomSeed(seed uint64) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, rating.WithSeed(seed))
	}
}

// WithRandomSource sets the habit opponent jitter source directly.
func WithRandomSource(src rating.RandomSource) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, rating.WithRandomSource(src))
	}
}

// WithDistributionBuckets sets the histogram width returned by Competition.
func WithDistributionBuckets(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.distributionBuckets = n
		}
	}
}

// WithSnapshotInterval sets how often population statistics are refreshed.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotInterval = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the queue to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
