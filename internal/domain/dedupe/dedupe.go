// Package dedupe tracks record identities so merges and replays stay
// idempotent.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen identities.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id, used when a write that claimed it failed.
	Unrecord(ctx context.Context, id string)

	// Seed records ids without reporting duplicates.
	Seed(ctx context.Context, ids ...string)

	Size() int64
}

// Option configures an in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered identities. When the bound is
// hit the oldest identity is forgotten. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

type node struct {
	id         string
	prev, next *node
}

// inMemoryDeduper keeps a map for lookups and, in bounded mode, a doubly
// linked list in insertion order for eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*node
	head    *node // newest
	tail    *node // oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an unbounded deduper unless WithMaxSize says otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*node)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.record(id)
	return false
}

func (d *inMemoryDeduper) Seed(_ context.Context, ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		if _, ok := d.seen[id]; !ok {
			d.record(id)
		}
	}
}

// record must be called with d.mu held.
func (d *inMemoryDeduper) record(id string) {
	if d.maxSize <= 0 {
		d.seen[id] = nil
		d.size.Add(1)
		return
	}
	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	n := &node{id: id, next: d.head}
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[id] = n
	d.size.Add(1)
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if n != nil {
		d.unlink(n)
	}
	d.size.Add(-1)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail == nil {
		return
	}
	n := d.tail
	delete(d.seen, n.id)
	d.unlink(n)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
