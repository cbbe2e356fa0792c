// Package service is the booking application service: it loads and stores
// bookings around the weather-safety core and emits notifications for every
// recorded change.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/forecast"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/mq/queue"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/mq/worker"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/repository"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize       = 10_000
	defaultHorizon         = 72 * time.Hour
	defaultStep            = time.Hour
	defaultFlight          = 2 * time.Hour
	defaultForecastTimeout = 10 * time.Second
)

// Service implements the API dependencies for the scheduler.
type Service struct {
	mu sync.RWMutex

	// Core components
	policy    *minima.Policy
	evaluator *safety.Evaluator
	machine   *booking.StateMachine
	engine    *reschedule.Engine
	confirmer *reschedule.Confirmer
	source    weather.Source

	// Adapters
	store      repository.Store
	ownStore   bool
	queue      queue.Queue
	pool       *worker.Pool
	dispatcher worker.Dispatcher

	// Configuration
	workerCount     int
	queueSize       int
	autoRelease     bool
	horizon         time.Duration
	step            time.Duration
	flight          time.Duration
	forecastTimeout time.Duration
	engineOpts      []reschedule.Option
	clock           func() time.Time
	newID           func() string

	locks   *keyedMutex
	started bool
	logger  logger.Logger
}

// New constructs a Service. Domain components are ready immediately;
// the store, queue and workers are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		horizon:         defaultHorizon,
		step:            defaultStep,
		flight:          defaultFlight,
		forecastTimeout: defaultForecastTimeout,
		clock:           time.Now,
		newID:           uuid.NewString,
		locks:           newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.policy == nil {
		s.policy = minima.DefaultPolicy()
	}
	if s.source == nil {
		s.source = forecast.Instrument("simulated", forecast.NewSimulatedSource(forecast.WithSimulatedClock(s.clock)))
	}
	if s.dispatcher == nil {
		s.dispatcher = worker.LogDispatcher{Logger: logger.Named("notifications")}
	}

	s.evaluator = safety.NewEvaluator(s.policy)
	s.machine = booking.NewStateMachine(
		booking.WithClock(s.clock),
		booking.WithIDGenerator(s.newID),
		booking.WithAutoRelease(s.autoRelease),
	)
	// Caller options come last so they win over the shared clock.
	engineOpts := append([]reschedule.Option{reschedule.WithClock(s.clock)}, s.engineOpts...)
	s.engine = reschedule.NewEngine(s.evaluator, s.source, engineOpts...)
	s.confirmer = reschedule.NewConfirmer(s.evaluator, s.source, s.machine,
		reschedule.WithConfirmClock(s.clock),
		reschedule.WithConfirmTimeout(s.forecastTimeout),
	)
	return s
}

// Start creates the store (unless one was injected), the notification
// queue and the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scheduler service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownStore = true
		s.logger.Info(ctx, "using in-memory store")
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = worker.NewPool(s.workerCount, q, s.dispatcher)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scheduler service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("autoRelease", s.autoRelease),
	)
	return nil
}

// Stop drains pending notifications and releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scheduler service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "notification workers did not drain", logger.Error(err))
	}
	if s.ownStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		s.store = nil
		s.ownStore = false
	}

	s.started = false
	s.logger.Info(ctx, "scheduler service stopped")
}

// deps returns the started adapters or ErrNotStarted.
func (s *Service) deps() (repository.Store, queue.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.queue, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"autoRelease": s.autoRelease,
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		counts := s.store.CountByStatus(ctx)

		byStatus := make(map[string]int, len(counts))
		total := 0
		for st, n := range counts {
			byStatus[string(st)] = n
			total += n
			metrics.UpdateActiveBookings(string(st), n)
		}
		stats["queueLength"] = queueLen
		stats["bookings"] = byStatus
		stats["totalBookings"] = total
		stats["lockedBookings"] = s.locks.len()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// levelFor resolves the training level applied to a booking: the student's
// directory entry, or the most restrictive level when the student is not
// registered.
func (s *Service) levelFor(ctx context.Context, store repository.Store, b *booking.Booking) minima.TrainingLevel {
	p, err := store.GetPilot(ctx, b.StudentID)
	if err != nil {
		s.logger.Warn(ctx, "pilot not registered, applying student minima",
			logger.String("bookingId", b.ID),
			logger.String("studentId", b.StudentID),
		)
		return minima.StudentPilot
	}
	return p.TrainingLevel
}

// resolveLevel parses an explicit override or falls back to levelFor.
func (s *Service) resolveLevel(ctx context.Context, store repository.Store, b *booking.Booking, override string) (minima.TrainingLevel, error) {
	if override == "" {
		return s.levelFor(ctx, store, b), nil
	}
	lvl, err := minima.ParseTrainingLevel(override)
	if err != nil {
		return "", fmt.Errorf("training level: %w", err)
	}
	return lvl, nil
}
