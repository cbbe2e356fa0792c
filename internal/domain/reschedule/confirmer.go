package reschedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// Confirmer applies a chosen candidate after re-checking its weather.
type Confirmer struct {
	evaluator *safety.Evaluator
	source    weather.Source
	machine   *booking.StateMachine
	clock     func() time.Time
	timeout   time.Duration
}

// ConfirmerOption configures a Confirmer.
type ConfirmerOption func(*Confirmer)

// WithConfirmClock sets the time source used to reject past slots.
func WithConfirmClock(clock func() time.Time) ConfirmerOption {
	return func(c *Confirmer) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithConfirmTimeout bounds the forecast re-check.
func WithConfirmTimeout(d time.Duration) ConfirmerOption {
	return func(c *Confirmer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewConfirmer creates a Confirmer.
func NewConfirmer(evaluator *safety.Evaluator, source weather.Source, machine *booking.StateMachine, opts ...ConfirmerOption) *Confirmer {
	c := &Confirmer{
		evaluator: evaluator,
		source:    source,
		machine:   machine,
		clock:     time.Now,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm re-evaluates the candidate's time against fresh forecasts and, if
// still safe, moves b to that time and back to CONFIRMED. On any error b is
// left unchanged.
func (c *Confirmer) Confirm(ctx context.Context, b *booking.Booking, level minima.TrainingLevel, cand Candidate, actor string) (booking.HistoryEvent, error) {
	if cand.BookingID != b.ID {
		return booking.HistoryEvent{}, fmt.Errorf("%w: candidate is for %q, booking is %q", ErrCandidateMismatch, cand.BookingID, b.ID)
	}
	if b.Status != booking.StatusWeatherHold {
		return booking.HistoryEvent{}, fmt.Errorf("%w: booking %s is %s", ErrBookingNotOnHold, b.ID, b.Status)
	}
	if !cand.DateTime.After(c.clock()) {
		return booking.HistoryEvent{}, fmt.Errorf("%w: %s is in the past", ErrCandidateNoLongerSafe, cand.DateTime.UTC().Format(time.RFC3339))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	a, err := assess(ctx, c.source, c.evaluator, b, level, cand.DateTime)
	if err != nil {
		if errors.Is(err, minima.ErrInvalidTrainingLevel) {
			return booking.HistoryEvent{}, err
		}
		return booking.HistoryEvent{}, fmt.Errorf("%w: %w", ErrForecastUnavailable, err)
	}
	if !a.verdict.Safe {
		return booking.HistoryEvent{}, fmt.Errorf("%w: %s", ErrCandidateNoLongerSafe, a.verdict.Reason)
	}

	reasoning := cand.Reasoning
	if reasoning == "" {
		reasoning = a.verdict.Reason
	}
	ev, err := c.machine.Reschedule(b, cand.DateTime, actor, reasoning)
	if err != nil {
		return booking.HistoryEvent{}, err
	}
	verdict := a.verdict
	b.LatestVerdict = &verdict
	return ev, nil
}
