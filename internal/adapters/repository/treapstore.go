package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then userID ASC (deterministic). "less" means
// ranks earlier, so in-order traversal yields the leaderboard best first.
// Priorities are random, which keeps the expected depth at O(log n)
// however the ratings cluster.

const (
	defaultInitialRating   = 1000
	defaultSnapshotEvery   = 500 * time.Millisecond
	defaultMetricsInterval = 5 * time.Second
)

// Snapshot is an immutable view of the population used for statistics.
// Version is the number of applied updates it reflects.
type Snapshot struct {
	Ratings []int
	TakenAt time.Time
	Version uint64
}

type node struct {
	id     string
	rating int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) should appear before (bRating, bID).
func less(aRating int, aID string, bRating int, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, r int, prio uint64) *node {
	if n == nil {
		return &node{id: id, rating: r, prio: prio, size: 1}
	}
	if less(r, id, n.rating, n.id) {
		n.left = insert(n.left, id, r, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, r, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, r int) *node {
	if n == nil {
		return nil
	}
	switch {
	case r == n.rating && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, r)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, r)
		}
	case less(r, id, n.rating, n.id):
		n.left = deleteNode(n.left, id, r)
	default:
		n.right = deleteNode(n.right, id, r)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold a rating strictly greater than r.
func countAbove(n *node, r int) int {
	count := 0
	for n != nil {
		if n.rating > r {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in leaderboard order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// collectRatings appends every rating in leaderboard order.
func collectRatings(n *node, out []int) []int {
	if n == nil {
		return out
	}
	out = collectRatings(n.left, out)
	out = append(out, n.rating)
	return collectRatings(n.right, out)
}

// TreapStore is an in-memory Store.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]model.RatingRecord
	// seq holds the version of each user's last update.
	seq     map[string]uint64
	version uint64

	initialRating         int
	snapshotInterval      time.Duration
	metricsUpdateInterval time.Duration

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
	closed   atomic.Bool
}

// NewTreapStore constructs a treap store and starts its background snapshot
// and metrics loops, which run until ctx ends or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]model.RatingRecord),
		seq:                   make(map[string]uint64),
		initialRating:         defaultInitialRating,
		snapshotInterval:      defaultSnapshotEvery,
		metricsUpdateInterval: defaultMetricsInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Refresh()
	s.every(ctx, s.snapshotInterval, s.Refresh)
	s.every(ctx, s.metricsUpdateInterval, s.updateMetrics)
	return s
}

func (s *TreapStore) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Refresh rebuilds and publishes the population snapshot now.
func (s *TreapStore) Refresh() {
	start := time.Now()

	s.mu.RLock()
	snap := s.publishLocked()
	s.mu.RUnlock()

	metrics.RecordRepositorySnapshot(float64(snap.TakenAt.Sub(start).Microseconds())/1000, snap.TakenAt.Unix())
}

// publishLocked builds a snapshot of the current tree and publishes it unless
// a newer one is already out. The caller holds s.mu.
func (s *TreapStore) publishLocked() *Snapshot {
	snap := &Snapshot{
		Ratings: collectRatings(s.root, make([]int, 0, len(s.byID))),
		TakenAt: time.Now(),
		Version: s.version,
	}
	for {
		cur := s.snapshot.Load()
		if cur != nil && cur.Version > snap.Version {
			return cur
		}
		if s.snapshot.CompareAndSwap(cur, snap) {
			return snap
		}
	}
}

// View returns a user's record together with population ratings from a
// snapshot that already reflects that record, publishing a fresh snapshot
// when the last one predates the user's latest update.
func (s *TreapStore) View(_ context.Context, userID string) (model.RatingRecord, []int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RatingRecord{}, nil, ErrNotFound
	}
	snap := s.snapshot.Load()
	if snap.Version < s.seq[userID] {
		snap = s.publishLocked()
	}
	return rec, snap.Ratings, nil
}

// Close stops the background loops. Reads keep working; Apply fails.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// Apply implements Store.Apply in O(log n) expected time.
func (s *TreapStore) Apply(_ context.Context, userID string, fn model.UpdateFunc) (model.RatingRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if userID == "" {
		return model.RatingRecord{}, fmt.Errorf("%w: empty user id", ErrInvalidRecord)
	}
	if s.closed.Load() {
		return model.RatingRecord{}, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.byID[userID]
	if !exists {
		cur = model.NewRatingRecord(userID, s.initialRating)
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	if next.UserID != userID || next.Rating < 0 || !next.Consistent() {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return cur, fmt.Errorf("%w: %s rated %d as %q", ErrInvalidRecord, next.UserID, next.Rating, next.Rank)
	}

	if exists {
		s.root = deleteNode(s.root, userID, cur.Rating)
	}
	s.byID[userID] = next
	s.root = insert(s.root, userID, next.Rating, rand.Uint64())
	s.version++
	s.seq[userID] = s.version
	if !exists {
		metrics.UpdateTrackedUsers(len(s.byID))
	}
	return next, nil
}

// Get returns a copy of a user's record.
func (s *TreapStore) Get(_ context.Context, userID string) (model.RatingRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RatingRecord{}, ErrNotFound
	}
	return rec, nil
}

// Position returns the user's leaderboard position in O(log n).
func (s *TreapStore) Position(_ context.Context, userID string) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return 0, ErrNotFound
	}
	return countAbove(s.root, rec.Rating) + 1, nil
}

// TopN returns the top n entries ordered by rating desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]Entry, len(nodes))
	for i, nd := range nodes {
		pos := i + 1
		if i > 0 && nd.rating == nodes[i-1].rating {
			pos = out[i-1].Position
		}
		out[i] = Entry{Position: pos, UserID: nd.id, Rating: nd.rating, Rank: s.byID[nd.id].Rank}
	}
	return out, nil
}

// Count returns the number of users with a record.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Ratings returns the ratings from the last published snapshot.
func (s *TreapStore) Ratings(_ context.Context) []int {
	return s.snapshot.Load().Ratings
}

// Snapshot returns the last published snapshot.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	n := len(s.byID)
	s.mu.RUnlock()
	metrics.UpdateTrackedUsers(n)
}
