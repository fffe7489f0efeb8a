// Package dedupe tracks idempotency keys so a repeated submission is
// stored once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Tracker records idempotency keys and the result they produced.
type Tracker interface {
	// Claim atomically reserves key. claimed is false when the key was
	// already reserved; result then carries the id recorded by Complete,
	// or "" while the first request is still in flight.
	Claim(ctx context.Context, key string) (result string, claimed bool)

	// Complete attaches the result of a claimed key.
	Complete(ctx context.Context, key, result string)

	// Release forgets key so the request may be retried. Used when the
	// claimed request failed before anything was stored.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key    string
	result string
}

// inMemoryTracker keeps keys in insertion order. In bounded mode the
// oldest key is evicted first; maxSize <= 0 disables eviction.
type inMemoryTracker struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.keys = make(map[string]*list.Element)
	t.order = list.New()
	return t
}

func (t *inMemoryTracker) Claim(_ context.Context, key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.keys[key]; ok {
		return el.Value.(*entry).result, false
	}
	if t.maxSize > 0 {
		for t.order.Len() >= t.maxSize {
			t.evictOldest()
		}
	}
	t.keys[key] = t.order.PushBack(&entry{key: key})
	t.size.Add(1)
	return "", true
}

func (t *inMemoryTracker) Complete(_ context.Context, key, result string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.keys[key]; ok {
		el.Value.(*entry).result = result
	}
}

func (t *inMemoryTracker) Release(_ context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.keys[key]; ok {
		t.order.Remove(el)
		delete(t.keys, key)
		t.size.Add(-1)
	}
}

// evictOldest must be called with t.mu held.
func (t *inMemoryTracker) evictOldest() {
	front := t.order.Front()
	if front == nil {
		return
	}
	t.order.Remove(front)
	delete(t.keys, front.Value.(*entry).key)
	t.size.Add(-1)
}

// Size returns the number of tracked keys.
func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}
