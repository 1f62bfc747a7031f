// Package queue buffers analytics snapshots between report generation
// and the archival workers. Enqueue is non-blocking: report generation
// never waits on the write-behind pipeline.
package queue

import (
	"context"
	"sync"

	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/pkg/metrics"
)

// defaultCapacity bounds the buffer when no option overrides it.
const defaultCapacity = 10000

// Snapshot is the payload type flowing through the queue.
type Snapshot = repository.Snapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot to the queue.
	// Returns false if the queue is full or closed; the snapshot is
	// dropped and counted.
	Enqueue(ctx context.Context, s Snapshot) bool

	// Dequeue returns a channel that receives snapshots as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// snapshots can be enqueued and the dequeue channel drains then
	// closes. Idempotent.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a snapshot to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDropped()
		return false
	}

	select {
	case q.snapshots <- s:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueDropped()
		return false
	default:
		// Buffer full; the snapshot is dropped rather than blocking
		// report generation.
		metrics.RecordQueueDropped()
		return false
	}
}

// Dequeue returns a channel that receives snapshots as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for s := range q.snapshots {
			select {
			case out <- s:
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.snapshots)
	q.updateGauges()
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.closed = true
		close(q.snapshots)
	})
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.snapshots)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
