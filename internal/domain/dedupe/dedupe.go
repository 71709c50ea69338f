// Package dedupe tracks processed match ids so a repeated bot delivery of
// the same result command cannot apply a rating update twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen match ids for at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing a retry after a failed update.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of tracked ids.
	Size() int
}

// inMemoryDeduper keeps a bounded set of ids, evicting the oldest entries
// in insertion order once the cap is hit. Weekly match volume is tiny, so
// a slice-backed FIFO is plenty.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.order) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	for i, candidate := range d.order {
		if candidate == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
