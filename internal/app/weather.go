package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/repository"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// LocationForecast is the forecast used for one leg of a weather check.
type LocationForecast struct {
	Location model.Location
	Forecast weather.Forecast
}

// CheckResult is the outcome of CheckWeather.
type CheckResult struct {
	Booking   *booking.Booking
	Verdict   safety.Verdict
	Forecasts []LocationForecast
	// Event is the recorded status change, nil when the status held.
	Event *booking.HistoryEvent
	// ReleasePending is set when a safe verdict was recorded on a held
	// booking that stays held until a reschedule is confirmed.
	ReleasePending bool
}

// CheckWeather evaluates the forecast for a booking's scheduled time at every
// location it uses and applies the verdict. A CONFIRMED booking with an unsafe
// verdict moves to WEATHER_HOLD. Cancelled and completed bookings are
// evaluated but never changed. If any forecast is unavailable the booking is
// left untouched and the error wraps weather.ErrSourceUnavailable.
//
// level overrides the student's registered training level when non-empty.
func (s *Service) CheckWeather(ctx context.Context, id, level, actor string) (CheckResult, error) {
	var res CheckResult
	b, events, err := s.mutate(ctx, id, func(store repository.Store, b *booking.Booking) ([]booking.HistoryEvent, error) {
		lvl, err := s.resolveLevel(ctx, store, b, level)
		if err != nil {
			return nil, err
		}
		verdict, forecasts, err := s.assess(ctx, b, lvl)
		if err != nil {
			return nil, err
		}
		res.Verdict, res.Forecasts = verdict, forecasts

		ev, err := s.machine.ApplyWeatherVerdict(b, verdict, actor)
		if err != nil || ev == nil {
			return nil, err
		}
		return []booking.HistoryEvent{*ev}, nil
	})
	if err != nil {
		metrics.RecordWeatherCheck(checkOutcome(err))
		return CheckResult{}, fmt.Errorf("check weather for %s: %w", id, err)
	}

	res.Booking = b
	res.ReleasePending = res.Verdict.Safe && b.Status == booking.StatusWeatherHold
	if len(events) > 0 {
		res.Event = &events[0]
		s.logger.Info(ctx, "booking status changed by weather check",
			logger.String("bookingId", b.ID),
			logger.String("status", string(b.Status)),
			logger.String("reason", res.Verdict.Reason),
		)
	}
	metrics.RecordWeatherCheck(verdictOutcome(res.Verdict))
	return res, nil
}

// assess fetches every leg's forecast at the scheduled time and combines
// the verdicts, departure first.
func (s *Service) assess(ctx context.Context, b *booking.Booking, level minima.TrainingLevel) (safety.Verdict, []LocationForecast, error) {
	ctx, cancel := context.WithTimeout(ctx, s.forecastTimeout)
	defer cancel()

	locs := b.Locations()
	labels := make([]string, len(locs))
	verdicts := make([]safety.Verdict, len(locs))
	forecasts := make([]LocationForecast, len(locs))
	for i, loc := range locs {
		fc, err := s.source.Forecast(ctx, loc, b.ScheduledDate)
		if err != nil {
			if !errors.Is(err, weather.ErrSourceUnavailable) {
				err = fmt.Errorf("%w: %w", weather.ErrSourceUnavailable, err)
			}
			return safety.Verdict{}, nil, fmt.Errorf("forecast for %s: %w", loc.Name, err)
		}
		v, err := s.evaluator.Evaluate(fc.Conditions, level)
		if err != nil {
			return safety.Verdict{}, nil, err
		}
		labels[i], verdicts[i] = loc.Name, v
		forecasts[i] = LocationForecast{Location: loc, Forecast: fc}
	}

	verdict := safety.Combine(labels, verdicts)
	metrics.RecordSafetyEvaluation(string(level), verdict.Safe)
	for _, code := range verdict.Violations {
		metrics.RecordViolation(string(code))
	}
	return verdict, forecasts, nil
}

// RescheduleRequest asks for alternatives to a held booking.
type RescheduleRequest struct {
	BookingID string
	// From and To bound the search; zero values default to now and
	// From plus the configured horizon.
	From time.Time
	To   time.Time
	// Level overrides the student's registered training level.
	Level string
	// Busy adds caller-known unavailability to what the store derives
	// from other bookings.
	Busy map[string][]model.Interval
}

// RescheduleOptions returns ranked safe alternatives for a WEATHER_HOLD
// booking. It changes nothing.
func (s *Service) RescheduleOptions(ctx context.Context, req RescheduleRequest) ([]reschedule.Candidate, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	b, err := store.Get(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	level, err := s.resolveLevel(ctx, store, b, req.Level)
	if err != nil {
		return nil, err
	}

	w := reschedule.Window{Start: req.From, End: req.To, Step: s.step, Duration: s.flight}
	if w.Start.IsZero() {
		w.Start = s.clock()
	}
	if w.End.IsZero() {
		w.End = w.Start.Add(s.horizon)
	}

	busy, err := store.Busy(ctx, b.Participants(), model.Interval{Start: w.Start, End: w.End.Add(s.flight)}, s.flight, b.ID)
	if err != nil {
		return nil, err
	}
	for id, intervals := range req.Busy {
		busy[id] = append(busy[id], intervals...)
	}

	start := time.Now()
	cands, err := s.engine.GenerateOptions(ctx, b, level, w, reschedule.Availability{Busy: busy})
	ms := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordRescheduleGeneration(generationOutcome(err), ms, 0)
		return nil, fmt.Errorf("reschedule options for %s: %w", b.ID, err)
	}
	metrics.RecordRescheduleGeneration("ok", ms, len(cands))

	s.logger.Debug(ctx, "reschedule options generated",
		logger.String("bookingId", b.ID),
		logger.Int("candidates", len(cands)),
		logger.Float64("durationMs", ms),
	)
	return cands, nil
}

// ConfirmRequest selects one candidate for a held booking.
type ConfirmRequest struct {
	BookingID string
	Candidate reschedule.Candidate
	Level     string
	Actor     string
}

// ConfirmReschedule re-validates the chosen candidate against fresh weather
// and current calendars, then moves the booking and confirms it.
func (s *Service) ConfirmReschedule(ctx context.Context, req ConfirmRequest) (*booking.Booking, booking.HistoryEvent, error) {
	cand := req.Candidate
	if cand.BookingID == "" {
		cand.BookingID = req.BookingID
	}

	b, events, err := s.mutate(ctx, req.BookingID, func(store repository.Store, b *booking.Booking) ([]booking.HistoryEvent, error) {
		level, err := s.resolveLevel(ctx, store, b, req.Level)
		if err != nil {
			return nil, err
		}
		if cand.BookingID == b.ID && b.Status == booking.StatusWeatherHold {
			if err := s.checkFree(ctx, store, b, cand.DateTime); err != nil {
				return nil, err
			}
		}
		ev, err := s.confirmer.Confirm(ctx, b, level, cand, req.Actor)
		if err != nil {
			return nil, err
		}
		return []booking.HistoryEvent{ev}, nil
	})
	if err != nil {
		metrics.RecordRescheduleConfirmation(confirmOutcome(err))
		return nil, booking.HistoryEvent{}, fmt.Errorf("confirm reschedule for %s: %w", req.BookingID, err)
	}
	metrics.RecordRescheduleConfirmation("ok")

	s.logger.Info(ctx, "booking rescheduled",
		logger.String("bookingId", b.ID),
		logger.Time("scheduledDate", b.ScheduledDate),
		logger.Float64("confidence", cand.Confidence),
	)
	return b, events[0], nil
}

func verdictOutcome(v safety.Verdict) string {
	if v.Safe {
		return "safe"
	}
	return "unsafe"
}

func checkOutcome(err error) string {
	switch {
	case errors.Is(err, weather.ErrSourceUnavailable):
		return "unavailable"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func generationOutcome(err error) string {
	switch {
	case errors.Is(err, reschedule.ErrBookingNotOnHold):
		return "not_on_hold"
	case errors.Is(err, reschedule.ErrForecastUnavailable):
		return "unavailable"
	case errors.Is(err, reschedule.ErrInvalidWindow), errors.Is(err, minima.ErrInvalidTrainingLevel):
		return "invalid"
	default:
		return "error"
	}
}

func confirmOutcome(err error) string {
	switch {
	case errors.Is(err, reschedule.ErrCandidateNoLongerSafe):
		return "no_longer_safe"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, reschedule.ErrForecastUnavailable):
		return "unavailable"
	case errors.Is(err, reschedule.ErrBookingNotOnHold), errors.Is(err, reschedule.ErrCandidateMismatch):
		return "rejected"
	default:
		return "error"
	}
}
