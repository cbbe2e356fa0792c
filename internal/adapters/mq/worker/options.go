package worker

import (
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/mq/dedupe"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
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
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetries sets how many times a failed dispatch is retried.
func WithRetries(n int) Option {
	return func(w *InMemoryWorker) {
		if n >= 0 {
			w.retries = n
		}
	}
}

// WithBackoff sets the base delay between retries; it grows linearly.
func WithBackoff(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d >= 0 {
			w.backoff = d
		}
	}
}

// WithDeduper skips notifications whose id was already delivered.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *InMemoryWorker) {
		w.deduper = d
	}
}
