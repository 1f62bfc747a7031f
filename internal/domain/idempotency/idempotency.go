// Package idempotency provides a bounded request-key to report-id index
// so retried report submissions return the originally generated report.
package idempotency

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity bounds the index when no option overrides it.
const DefaultCapacity = 100_000

// Index maps request keys to the report already generated for them.
type Index interface {
	// Remember records the report id for key. A key already present has
	// its id refreshed without growing the index or moving the key's
	// eviction slot.
	Remember(key, reportID string)

	// Lookup returns the report id recorded for key, if any.
	Lookup(key string) (string, bool)

	// Size reports the number of keys currently held.
	Size() int64
}

// Option applies a configuration option to the in-memory index.
type Option func(*memoryIndex)

// WithCapacity bounds the index to at most n keys, evicting the oldest
// key beyond that. n <= 0 lifts the bound entirely.
func WithCapacity(n int) Option {
	return func(ix *memoryIndex) {
		ix.capacity = n
	}
}

// entry is one key's slot in the insertion-ordered list.
type entry struct {
	key      string
	reportID string
	next     *entry
}

// reset clears the entry for pool reuse.
func (e *entry) reset() {
	e.key = ""
	e.reportID = ""
	e.next = nil
}

// memoryIndex keeps a map for lookup plus a linked list ordered
// newest-first, so the tail is always the eviction candidate. Entries are
// pooled to keep insert/evict churn off the allocator. Unbounded mode
// skips the list and the pool.
type memoryIndex struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	head     *entry
	capacity int
	size     atomic.Int64
	pool     sync.Pool
}

// NewIndex creates an in-memory index with DefaultCapacity unless
// overridden.
func NewIndex(opts ...Option) Index {
	ix := &memoryIndex{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(ix)
	}

	ix.entries = make(map[string]*entry)
	if ix.capacity > 0 {
		ix.pool = sync.Pool{
			New: func() interface{} {
				return &entry{}
			},
		}
	}
	return ix
}

func (ix *memoryIndex) Remember(key, reportID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if e, ok := ix.entries[key]; ok {
		e.reportID = reportID
		return
	}

	if ix.capacity > 0 {
		if len(ix.entries) >= ix.capacity {
			ix.evictOldest()
		}
		e := ix.pool.Get().(*entry)
		e.key = key
		e.reportID = reportID
		e.next = ix.head
		ix.head = e
		ix.entries[key] = e
	} else {
		ix.entries[key] = &entry{key: key, reportID: reportID}
	}
	ix.size.Add(1)
}

func (ix *memoryIndex) Lookup(key string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.entries[key]
	if !ok {
		return "", false
	}
	return e.reportID, true
}

// evictOldest drops the tail of the insertion list. Callers hold the
// write lock.
func (ix *memoryIndex) evictOldest() {
	if ix.head == nil {
		return
	}

	if ix.head.next == nil {
		delete(ix.entries, ix.head.key)
		ix.head.reset()
		ix.pool.Put(ix.head)
		ix.head = nil
		ix.size.Add(-1)
		return
	}

	prev := ix.head
	for prev.next.next != nil {
		prev = prev.next
	}
	tail := prev.next
	prev.next = nil
	delete(ix.entries, tail.key)
	tail.reset()
	ix.pool.Put(tail)
	ix.size.Add(-1)
}

func (ix *memoryIndex) Size() int64 {
	return ix.size.Load()
}
