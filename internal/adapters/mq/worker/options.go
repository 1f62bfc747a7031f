package worker

import (
	"github.com/voralis/envrisk/pkg/logger"
)

// Option applies a configuration option to the SnapshotWorker.
type Option func(*SnapshotWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *SnapshotWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *SnapshotWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
