package service

import (
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/mq/worker"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/repository"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPolicy sets the minima policy. Defaults to minima.DefaultPolicy.
func WithPolicy(p *minima.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithWeatherSource sets where forecasts come from. Defaults to a
// simulated source.
func WithWeatherSource(src weather.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore injects a store instead of the in-memory one created by Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDispatcher sets how notifications are delivered. Defaults to the log.
func WithDispatcher(d worker.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithClock sets the time source shared by every component.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator sets the generator for booking and event ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithAutoRelease lets a safe weather check release a held booking.
func WithAutoRelease(enabled bool) Option {
	return func(s *Service) {
		s.autoRelease = enabled
	}
}

// WithSearchHorizon sets how far ahead reschedule options are searched
// when the caller gives no window end.
func WithSearchHorizon(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// WithSlotShape sets the spacing between candidate start times and the
// flight duration that blocks participants.
func WithSlotShape(step, flight time.Duration) Option {
	return func(s *Service) {
		if step > 0 {
			s.step = step
		}
		if flight > 0 {
			s.flight = flight
		}
	}
}

// WithEngineOptions passes options through to the reschedule engine.
func WithEngineOptions(opts ...reschedule.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithForecastTimeout bounds each weather check and confirmation re-check.
func WithForecastTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.forecastTimeout = d
		}
	}
}
