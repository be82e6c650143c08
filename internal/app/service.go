// Package service wires the rating engine, queue, workers and store into
// the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/repentdaily/rating/internal/adapters/mq/queue"
	workerpool "github.com/repentdaily/rating/internal/adapters/mq/worker"
	"github.com/repentdaily/rating/internal/adapters/repository"
	"github.com/repentdaily/rating/internal/domain/dedupe"
	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/internal/domain/rating"
	"github.com/repentdaily/rating/internal/domain/stats"
	"github.com/repentdaily/rating/internal/domain/types"
	"github.com/repentdaily/rating/pkg/logger"
	"github.com/repentdaily/rating/pkg/metrics"
)

// Receipt acknowledges a submitted completion.
type Receipt struct {
	EventID   string
	Duplicate bool
}

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	store      *repository.TreapStore
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	engine     *rating.Engine
	workerPool *workerpool.Pool

	workerCount         int
	queueSize           int
	dedupeSize          int
	initialRating       int
	distributionBuckets int
	snapshotInterval    time.Duration
	shutdownTimeout     time.Duration
	engineOpts          []rating.Option

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU() * 2,
		queueSize:           100_000,
		dedupeSize:          50_000,
		initialRating:       1000,
		distributionBuckets: stats.DefaultBucketCount,
		snapshotInterval:    500 * time.Millisecond,
		shutdownTimeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds fresh components and starts the workers. Records do not
// survive a Stop/Start cycle.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting rating service")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.store = repository.NewTreapStore(runCtx,
		repository.WithInitialRating(s.initialRating),
		repository.WithSnapshotInterval(s.snapshotInterval),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	s.engine = rating.NewEngine(s.engineOpts...)
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.engine, s.store)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("initial_rating", s.initialRating),
	)
	return nil
}

// Stop drains queued completions, then shuts the store down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping rating service")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.store.Close()
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "rating service stopped",
		logger.Int64("processed", s.workerPool.Processed()),
		logger.Int64("failed", s.workerPool.Failed()),
	)
}

// Submit validates e and queues it for scoring. An empty EventID is replaced
// with a random UUID. A replayed EventID is acknowledged as a duplicate
// without being queued again.
func (s *Service) Submit(ctx context.Context, e model.CompletionEvent) (Receipt, error) { //nolint:gocritic // hugeParam: events travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return Receipt{}, ErrNotStarted
	}
	if err := validate(&e); err != nil {
		return Receipt{}, err
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.TS.IsZero() {
		e.TS = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordCompletionDuplicate()
		s.logger.Debug(ctx, "duplicate completion", logger.String("event_id", e.EventID))
		return Receipt{EventID: e.EventID, Duplicate: true}, nil
	}
	if !s.eventQueue.Enqueue(ctx, e) {
		s.deduper.Unrecord(ctx, e.EventID)
		return Receipt{}, ErrBackpressure
	}
	return Receipt{EventID: e.EventID}, nil
}

func validate(e *model.CompletionEvent) error {
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidEvent)
	}
	kind, err := rating.ParseKind(string(e.Kind))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	e.Kind = kind
	if e.HabitStreak < 0 {
		return fmt.Errorf("%w: habit_streak must not be negative", ErrInvalidEvent)
	}
	return nil
}

// Record returns a user's rating, leaderboard position and tier progress.
func (s *Service) Record(ctx context.Context, userID string) (types.RatingView, error) {
	store, err := s.liveStore()
	if err != nil {
		return types.RatingView{}, err
	}
	rec, err := store.Get(ctx, userID)
	if err != nil {
		return types.RatingView{}, err
	}
	pos, err := store.Position(ctx, userID)
	if err != nil {
		return types.RatingView{}, err
	}
	return types.NewRatingView(rec, pos), nil
}

// Leaderboard returns the top n users.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.liveStore()
	if err != nil {
		return nil, err
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Position: e.Position, UserID: e.UserID, Rating: e.Rating, Rank: e.Rank}
	}
	return out, nil
}

// Competition compares a user with the population as of a snapshot that
// already counts the user's current rating.
func (s *Service) Competition(ctx context.Context, userID string) (types.Competition, error) {
	store, err := s.liveStore()
	if err != nil {
		return types.Competition{}, err
	}
	rec, all, err := store.View(ctx, userID)
	if err != nil {
		return types.Competition{}, err
	}
	return types.Competition{
		UserID:       rec.UserID,
		Rating:       rec.Rating,
		Rank:         rec.Rank,
		Summary:      stats.Population(rec.Rating, all),
		Distribution: stats.DistributionBuckets(all, s.distributionBuckets),
		Tiers:        stats.TierDistribution(all),
	}, nil
}

// Tiers returns the rank tier table.
func (s *Service) Tiers() []rating.Tier {
	return rating.Tiers()
}

func (s *Service) liveStore() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"initialRating": s.initialRating,
	}
	if s.started {
		ctx := context.Background()
		users := s.store.Count(ctx)
		out["queueLength"] = s.eventQueue.Len(ctx)
		out["trackedUsers"] = users
		out["dedupeEntries"] = s.deduper.Size()
		if snap := s.store.Snapshot(); snap != nil {
			out["snapshotAt"] = snap.TakenAt
		}
		metrics.UpdateTrackedUsers(users)
	}
	if s.workerPool != nil {
		out["processed"] = s.workerPool.Processed()
		out["failed"] = s.workerPool.Failed()
	}
	return out
}
