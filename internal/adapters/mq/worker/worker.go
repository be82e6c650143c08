// Package worker scores queued completions and applies them to rating records.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/internal/domain/rating"
	"github.com/repentdaily/rating/pkg/logger"
	"github.com/repentdaily/rating/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
)

// Event is what workers read off the queue.
type Event = model.CompletionEvent

// UpdateFunc turns a user's current record into the next one.
type UpdateFunc = model.UpdateFunc

// Applier runs fn against userID's record as one atomic read-modify-write,
// creating the record first if the user has none.
type Applier interface {
	Apply(ctx context.Context, userID string, fn UpdateFunc) (model.RatingRecord, error)
}

// Scorer computes the rating change for a completion. *rating.Engine
// satisfies it.
type Scorer interface {
	Score(in rating.Input) (rating.Change, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Result is one applied completion.
type Result struct {
	Event  Event
	Before model.RatingRecord
	After  model.RatingRecord
	Change rating.Change
}

// Worker processes events and writes rating updates using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing events.
type InMemoryWorker struct {
	queue    Queue
	scorer   Scorer
	applier  Applier
	name     string
	onResult func(context.Context, Result)

	processed atomic.Int64
	failed    atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		scorer:   scorer,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if _, err := w.Process(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing completion",
					logger.String("event_id", event.EventID),
					logger.String("user_id", event.UserID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for the in-flight event.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Processed returns how many completions this worker applied.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many completions this worker could not apply.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

// Process scores event against the user's current record and stores the
// result. Scoring happens inside the store update so concurrent completions
// for one user see each other's streaks and ratings.
func (w *InMemoryWorker) Process(ctx context.Context, event Event) (Result, error) { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	at := event.TS
	if at.IsZero() {
		at = start.UTC()
	}

	res := Result{Event: event}
	var scoreErr error
	after, err := w.applier.Apply(ctx, event.UserID, func(cur model.RatingRecord) (model.RatingRecord, error) {
		change, err := w.scorer.Score(cur.Input(event))
		if err != nil {
			scoreErr = err
			return cur, err
		}
		res.Before = cur
		res.Change = change
		return cur.Apply(model.Outcome{Win: event.Completed, Delta: change.Delta, At: at}), nil
	})

	switch {
	case scoreErr != nil:
		w.failed.Add(1)
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return res, fmt.Errorf("%w: event %s: %w", ErrScoring, event.EventID, scoreErr)
	case err != nil:
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		return res, fmt.Errorf("%w: event %s: %w", ErrApply, event.EventID, err)
	}

	res.After = after
	w.processed.Add(1)
	metrics.RecordCompletion(string(event.Kind), event.Completed, res.Change.Delta)
	if from, to := rating.TierIndex(res.Before.Rating), rating.TierIndex(after.Rating); from != to {
		metrics.RecordRankChange(to > from)
		w.logger.Debug(ctx, "rank changed",
			logger.String("user_id", event.UserID),
			logger.String("from", res.Before.Rank),
			logger.String("to", after.Rank),
		)
	}
	if w.onResult != nil {
		w.onResult(ctx, res)
	}
	return res, nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	stopped atomic.Bool

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one uses a
// multiple of the CPU count.
func NewPool(workerCount int, queue Queue, scorer Scorer, applier Applier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, scorer, applier, workerOpts...)
	}
	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Processed sums applied completions over all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Failed sums failed completions over all workers.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Stop halts every worker without draining, waiting up to
// workerShutdownTimeout for each.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	for _, worker := range p.workers {
		worker.stopOnce.Do(func() { close(worker.shutdown) })
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker did not stop", logger.String("worker", worker.name))
		}
	}
	metrics.UpdateWorkerCount(0)
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx ends are stopped and the remaining events are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return ErrStopped
	}
	defer metrics.UpdateWorkerCount(0)

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-ctx.Done():
			timedOut = true
		}
		if timedOut {
			break
		}
	}
	if !timedOut {
		return nil
	}

	for _, worker := range p.workers {
		worker.stopOnce.Do(func() { close(worker.shutdown) })
	}
	p.logger.Warn(ctx, "worker pool drain timed out", logger.Int("workers", len(p.workers)))
	return fmt.Errorf("drain timed out: %w", ctx.Err())
}
