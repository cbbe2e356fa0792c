package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	reportPermission    = 0o600
)

// ErrInconsistent is returned when a booking history fails verification.
var ErrInconsistent = errors.New("inconsistent booking history")

const (
	statusConfirmed   = "CONFIRMED"
	statusWeatherHold = "WEATHER_HOLD"
)

// run carries the state shared by the phases.
type run struct {
	config *Config
	client *HTTPClient
	stats  *Stats
	log    logger.Logger

	mu          sync.Mutex
	ids         []string
	held        []string
	rescheduled map[string]bool
}

// Run executes the complete booking flow against config.BaseURL.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	r := &run{
		config:      config,
		client:      newHTTPClient(config.BaseURL, config.Timeout),
		stats:       &Stats{StartTime: time.Now()},
		log:         logger.Named("loadtest"),
		rescheduled: make(map[string]bool),
	}

	r.log.Info(ctx, "starting booking load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("pilots", config.Pilots),
		logger.Int("bookings", config.Bookings),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	if _, err := r.client.get(ctx, "/healthz", nil); err != nil {
		return r.stats, fmt.Errorf("service health check failed: %w", err)
	}

	plan := generatePlan(ctx, config, time.Now())

	phases := []struct {
		name string
		fn   func(context.Context, Plan) error
	}{
		{"register pilots", r.registerPilots},
		{"create bookings", r.createBookings},
		{"check weather", r.checkWeather},
		{"reschedule held bookings", r.rescheduleHeld},
		{"verify histories", r.verify},
	}
	for _, p := range phases {
		started := time.Now()
		if err := p.fn(ctx, plan); err != nil {
			return r.stats, fmt.Errorf("%s: %w", p.name, err)
		}
		r.log.Info(ctx, "phase completed", logger.String("phase", p.name), logger.Duration("took", time.Since(started)))
	}

	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	r.logStats(ctx)

	if config.OutputFile != "" {
		if err := r.saveReport(plan); err != nil {
			r.log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
	if n := atomic.LoadInt64(&r.stats.Inconsistent); n > 0 {
		return r.stats, fmt.Errorf("%w: %d bookings", ErrInconsistent, n)
	}
	return r.stats, nil
}

// forEach calls fn for 0..n-1 with at most Workers calls in flight. Request
// failures are counted, not returned; only context cancellation stops it.
func (r *run) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *run) fail(ctx context.Context, what string, err error) {
	atomic.AddInt64(&r.stats.Failed, 1)
	if r.config.Verbose {
		r.log.Warn(ctx, "request failed", logger.String("step", what), logger.Error(err))
	}
}

func (r *run) registerPilots(ctx context.Context, plan Plan) error {
	return r.forEach(ctx, len(plan.Pilots), func(ctx context.Context, i int) {
		if _, err := r.client.post(ctx, "/pilots", plan.Pilots[i], nil); err != nil {
			r.fail(ctx, "register pilot", err)
			return
		}
		atomic.AddInt64(&r.stats.PilotsRegistered, 1)
	})
}

func (r *run) createBookings(ctx context.Context, plan Plan) error {
	return r.forEach(ctx, len(plan.Bookings), func(ctx context.Context, i int) {
		var b Booking
		code, err := r.client.post(ctx, "/bookings", plan.Bookings[i], &b)
		switch {
		case code == http.StatusConflict:
			atomic.AddInt64(&r.stats.BookingConflicts, 1)
		case err != nil:
			r.fail(ctx, "create booking", err)
		default:
			atomic.AddInt64(&r.stats.BookingsCreated, 1)
			r.mu.Lock()
			r.ids = append(r.ids, b.ID)
			r.mu.Unlock()
		}
	})
}

type checkResponse struct {
	Booking       Booking `json:"booking"`
	StatusChanged bool    `json:"statusChanged"`
}

func (r *run) checkWeather(ctx context.Context, _ Plan) error {
	ids := r.snapshotIDs()
	return r.forEach(ctx, len(ids), func(ctx context.Context, i int) {
		var res checkResponse
		code, err := r.client.post(ctx, "/check-weather", map[string]string{"bookingId": ids[i], "actor": "loadtest"}, &res)
		switch {
		case code == http.StatusServiceUnavailable:
			atomic.AddInt64(&r.stats.WeatherUnavailable, 1)
			return
		case err != nil:
			r.fail(ctx, "check weather", err)
			return
		}
		atomic.AddInt64(&r.stats.WeatherChecks, 1)
		if res.Booking.Status == statusWeatherHold {
			atomic.AddInt64(&r.stats.Held, 1)
			r.mu.Lock()
			r.held = append(r.held, ids[i])
			r.mu.Unlock()
		}
	})
}

type optionsResponse struct {
	Options []Option `json:"options"`
}

// rescheduleHeld confirms the best option for every held booking, falling
// back to the next one when a slot was taken or the weather turned.
func (r *run) rescheduleHeld(ctx context.Context, _ Plan) error {
	r.mu.Lock()
	held := append([]string(nil), r.held...)
	r.mu.Unlock()

	return r.forEach(ctx, len(held), func(ctx context.Context, i int) {
		id := held[i]
		var opts optionsResponse
		if _, err := r.client.post(ctx, "/reschedule-options", map[string]string{"bookingId": id}, &opts); err != nil {
			r.fail(ctx, "reschedule options", err)
			return
		}
		if len(opts.Options) == 0 {
			atomic.AddInt64(&r.stats.NoOptions, 1)
			return
		}
		for _, opt := range opts.Options {
			body := map[string]any{"bookingId": id, "option": opt, "actor": "loadtest"}
			code, err := r.client.post(ctx, "/confirm-reschedule", body, nil)
			switch {
			case err == nil:
				atomic.AddInt64(&r.stats.Rescheduled, 1)
				r.mu.Lock()
				r.rescheduled[id] = true
				r.mu.Unlock()
				return
			case code == http.StatusConflict || code == http.StatusUnprocessableEntity:
				atomic.AddInt64(&r.stats.RescheduleRejected, 1)
			default:
				r.fail(ctx, "confirm reschedule", err)
				return
			}
		}
	})
}

// verify checks every created booking: its history starts with CREATED and
// is in time order, a held booking recorded the status change, and a
// rescheduled booking is confirmed with a RESCHEDULED event.
func (r *run) verify(ctx context.Context, _ Plan) error {
	ids := r.snapshotIDs()
	return r.forEach(ctx, len(ids), func(ctx context.Context, i int) {
		id := ids[i]
		var b Booking
		if _, err := r.client.get(ctx, "/bookings/"+id, &b); err != nil {
			r.fail(ctx, "get booking", err)
			return
		}
		var history []HistoryEvent
		if _, err := r.client.get(ctx, "/bookings/"+id+"/history", &history); err != nil {
			r.fail(ctx, "get history", err)
			return
		}

		r.mu.Lock()
		moved := r.rescheduled[id]
		r.mu.Unlock()

		if err := checkHistory(b, history, moved); err != nil {
			atomic.AddInt64(&r.stats.Inconsistent, 1)
			r.log.Error(ctx, "booking failed verification", logger.String("bookingId", id), logger.Error(err))
			return
		}
		atomic.AddInt64(&r.stats.Verified, 1)
	})
}

func checkHistory(b Booking, history []HistoryEvent, rescheduled bool) error {
	if len(history) == 0 || history[0].Action != "CREATED" {
		return errors.New("history does not start with CREATED")
	}
	actions := make(map[string]bool, len(history))
	for i, ev := range history {
		if i > 0 && ev.Timestamp.Before(history[i-1].Timestamp) {
			return fmt.Errorf("event %d is older than its predecessor", i)
		}
		actions[ev.Action] = true
	}
	if b.Status == statusWeatherHold && !actions["STATUS_CHANGED"] {
		return errors.New("held without a status change")
	}
	if rescheduled && (b.Status != statusConfirmed || !actions["RESCHEDULED"]) {
		return fmt.Errorf("rescheduled booking is %s without a RESCHEDULED event", b.Status)
	}
	return nil
}

func (r *run) snapshotIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func (r *run) saveReport(plan Plan) error {
	r.mu.Lock()
	report := Report{Plan: plan, Stats: r.stats}
	for _, id := range r.held {
		if !r.rescheduled[id] {
			report.Held = append(report.Held, id)
		}
	}
	r.mu.Unlock()

	if dir := filepath.Dir(r.config.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(r.config.OutputFile, data, reportPermission)
}

func (r *run) logStats(ctx context.Context) {
	s := r.stats
	var perSecond float64
	if s.Duration > 0 {
		perSecond = float64(atomic.LoadInt64(&s.BookingsCreated)) / s.Duration.Seconds()
	}
	r.log.Info(ctx, "final statistics",
		logger.Int64("pilotsRegistered", atomic.LoadInt64(&s.PilotsRegistered)),
		logger.Int64("bookingsCreated", atomic.LoadInt64(&s.BookingsCreated)),
		logger.Int64("bookingConflicts", atomic.LoadInt64(&s.BookingConflicts)),
		logger.Int64("weatherChecks", atomic.LoadInt64(&s.WeatherChecks)),
		logger.Int64("weatherUnavailable", atomic.LoadInt64(&s.WeatherUnavailable)),
		logger.Int64("held", atomic.LoadInt64(&s.Held)),
		logger.Int64("noOptions", atomic.LoadInt64(&s.NoOptions)),
		logger.Int64("rescheduled", atomic.LoadInt64(&s.Rescheduled)),
		logger.Int64("rescheduleRejected", atomic.LoadInt64(&s.RescheduleRejected)),
		logger.Int64("verified", atomic.LoadInt64(&s.Verified)),
		logger.Int64("inconsistent", atomic.LoadInt64(&s.Inconsistent)),
		logger.Int64("failed", atomic.LoadInt64(&s.Failed)),
		logger.Duration("duration", s.Duration),
		logger.Float64("bookingsPerSecond", perSecond))
}
