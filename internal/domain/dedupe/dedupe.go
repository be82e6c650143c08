// Package dedupe tracks completion event IDs so each completion moves a
// rating at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50_000

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it can be retried. Only used when an event was
	// recorded but never reached a worker (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// slot is one FIFO position. A slot is stale when its seq no longer matches
// the live entry for id (the id was unrecorded, possibly re-recorded).
type slot struct {
	id  string
	seq uint64
}

// inMemoryDeduper keeps IDs in a map and, when bounded, evicts the oldest
// recorded ID once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64
	order   []slot
	head    int
	seq     uint64
	maxSize int // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.seq++
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize {
			if !d.evictOldest() {
				break
			}
		}
		if len(d.order)-d.head >= 2*d.maxSize {
			d.prune()
		}
		d.order = append(d.order, slot{id: id, seq: d.seq})
	}
	d.seen[id] = d.seq
	d.size.Store(int64(len(d.seen)))
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Store(int64(len(d.seen)))
}

// evictOldest drops the oldest live ID and reports whether one was found.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() bool {
	defer d.compact()
	for d.head < len(d.order) {
		s := d.order[d.head]
		d.order[d.head] = slot{}
		d.head++
		if seq, ok := d.seen[s.id]; ok && seq == s.seq {
			delete(d.seen, s.id)
			return true
		}
	}
	return false
}

// compact reclaims the consumed prefix of order once it dominates the slice.
func (d *inMemoryDeduper) compact() {
	if d.head == 0 || d.head < len(d.order)/2 {
		return
	}
	n := copy(d.order, d.order[d.head:])
	clear(d.order[n:])
	d.order = d.order[:n]
	d.head = 0
}

// prune drops stale slots left behind by Unrecord. Must be called with d.mu held.
func (d *inMemoryDeduper) prune() {
	live := d.order[:0]
	for _, s := range d.order[d.head:] {
		if seq, ok := d.seen[s.id]; ok && seq == s.seq {
			live = append(live, s)
		}
	}
	clear(d.order[len(live):])
	d.order = live
	d.head = 0
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
