// Package worker delivers queued booking notifications.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/mq/dedupe"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 4
	defaultRetries      = 2
	defaultBackoff      = 200 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second
)

// Dispatcher delivers one notification to its recipients.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, n model.Notification) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, n model.Notification) error { //nolint:gocritic // hugeParam
	return f(ctx, n)
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Notification
}

// Worker consumes notifications until its queue closes or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	dispatcher Dispatcher
	deduper    dedupe.Deduper
	name       string
	retries    int
	backoff    time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, dispatcher Dispatcher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		dispatcher: dispatcher,
		name:       "worker",
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, n); err != nil {
				w.logger.Error(ctx, "notification delivery failed",
					logger.String("notificationId", n.ID),
					logger.String("bookingId", n.BookingID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for the current delivery to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process delivers n with retries. Ids already delivered are skipped; a
// final failure forgets the id so a redelivery can try again.
func (w *InMemoryWorker) process(ctx context.Context, n model.Notification) error { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if w.deduper != nil && w.deduper.SeenAndRecord(ctx, n.ID) {
		w.logger.Debug(ctx, "skipping duplicate notification", logger.String("notificationId", n.ID))
		return nil
	}

	var err error
retry:
	for attempt := 0; ; attempt++ {
		if err = w.dispatcher.Dispatch(ctx, n); err == nil {
			metrics.RecordNotificationDispatched(n.Action)
			return nil
		}
		if attempt == w.retries {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retry
		case <-time.After(w.backoff * time.Duration(attempt+1)):
		}
	}

	if w.deduper != nil {
		w.deduper.Unrecord(ctx, n.ID)
	}
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "dispatch_error")
	return fmt.Errorf("dispatch %s after %d attempts: %w", n.ID, w.retries+1, err)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers sharing a deduper.
func NewPool(workerCount int, queue Queue, dispatcher Dispatcher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	shared := dedupe.NewInMemoryDeduper()
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Named("worker-pool"),
	}
	for i := range pool.workers {
		wopts := append([]Option{WithDeduper(shared)}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, dispatcher, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them up to the context deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}

// LogDispatcher writes notifications to the log. It stands in for email or
// push delivery.
type LogDispatcher struct {
	Logger logger.Logger
}

// Dispatch implements Dispatcher.
func (d LogDispatcher) Dispatch(ctx context.Context, n model.Notification) error { //nolint:gocritic // hugeParam
	l := d.Logger
	if l == nil {
		l = logger.Named("notifications")
	}
	l.Info(ctx, n.Message,
		logger.String("notificationId", n.ID),
		logger.String("bookingId", n.BookingID),
		logger.String("action", n.Action),
		logger.Any("recipients", n.Recipients),
		logger.Time("at", n.CreatedAt),
	)
	return nil
}
