package worker

import (
	"context"

	"github.com/repentdaily/rating/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithResultHook calls fn after every applied completion. fn runs on the
// worker goroutine and must not block.
func WithResultHook(fn func(context.Context, Result)) Option {
	return func(w *InMemoryWorker) {
		w.onResult = fn
	}
}
