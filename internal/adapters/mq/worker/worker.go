// Package worker drains the snapshot queue, archiving each snapshot
// and forwarding it to the analytics publisher when one is configured.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/voralis/envrisk/internal/adapters/mq/queue"
	"github.com/voralis/envrisk/pkg/logger"
	"github.com/voralis/envrisk/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	itemTimeout             = 10 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Snapshot is what workers read off the queue.
type Snapshot = queue.Snapshot

// Archiver persists a snapshot.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, s Snapshot) error
}

// Publisher forwards a snapshot to an external analytics sink. Nil
// means publishing is disabled.
type Publisher interface {
	Publish(ctx context.Context, s Snapshot) error
}

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Worker processes snapshots until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker, processing any in-flight
	// snapshot first.
	Shutdown(ctx context.Context) error
}

// SnapshotWorker implements Worker over an Archiver and an optional
// Publisher.
type SnapshotWorker struct {
	queue     Queue
	archiver  Archiver
	publisher Publisher
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewSnapshotWorker creates a new worker with configuration options.
func NewSnapshotWorker(q Queue, archiver Archiver, publisher Publisher, opts ...Option) *SnapshotWorker {
	w := &SnapshotWorker{
		queue:     q,
		archiver:  archiver,
		publisher: publisher,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *SnapshotWorker) Run(ctx context.Context) {
	defer close(w.done)

	snapshots := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "snapshot processing failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *SnapshotWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process archives one snapshot and forwards it to the publisher.
// Publish failures are logged but never fail the item: the archive is
// the durable copy.
func (w *SnapshotWorker) process(ctx context.Context, s Snapshot) error {
	const op = "worker.process"

	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	itemCtx, cancel := context.WithTimeout(ctx, itemTimeout)
	defer cancel()

	if err := w.archiver.ArchiveSnapshot(itemCtx, s); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByType("archive_error", "high")
		w.logger.Error(ctx, "snapshot archive failed",
			logger.String("reportID", s.ReportID),
			logger.Error(err),
		)
		return fmt.Errorf("%s: archive snapshot %s: %w", op, s.ReportID, err)
	}

	if w.publisher != nil {
		if err := w.publisher.Publish(itemCtx, s); err != nil {
			metrics.RecordPublishError()
			metrics.RecordErrorByType("publish_error", "medium")
			w.logger.Warn(ctx, "snapshot publish failed",
				logger.String("reportID", s.ReportID),
				logger.Error(err),
			)
		} else {
			metrics.RecordEventPublished()
		}
	}

	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*SnapshotWorker

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count
// scales with the number of CPUs.
func NewPool(workerCount int, q Queue, archiver Archiver, publisher Publisher) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*SnapshotWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewSnapshotWorker(q, archiver, publisher,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown drains the workers with a deadline. The queue should be
// closed first so workers exit once the buffered snapshots are gone.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	return nil
}
