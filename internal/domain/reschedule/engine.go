package reschedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"golang.org/x/sync/errgroup"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// Default engine configuration constants.
const (
	defaultMaxCandidates  = 5
	defaultTimeout        = 10 * time.Second
	defaultConcurrency    = 8
	defaultOperatingStart = 7
	defaultOperatingEnd   = 19
	defaultHorizon        = 10 * 24 * time.Hour
	defaultLeadTimeDecay  = 0.5
	maxSlots              = 1000
)

// Engine generates ranked reschedule candidates. It keeps no per-call state
// and is safe for concurrent use.
type Engine struct {
	evaluator *safety.Evaluator
	source    weather.Source
	scorer    Scorer
	clock     func() time.Time
	horizon   time.Duration

	maxCandidates  int
	timeout        time.Duration
	concurrency    int
	operatingStart int
	operatingEnd   int
	loc            *time.Location
}

// NewEngine creates an Engine with configuration options.
func NewEngine(evaluator *safety.Evaluator, source weather.Source, opts ...Option) *Engine {
	e := &Engine{
		evaluator:      evaluator,
		source:         source,
		clock:          time.Now,
		horizon:        defaultHorizon,
		maxCandidates:  defaultMaxCandidates,
		timeout:        defaultTimeout,
		concurrency:    defaultConcurrency,
		operatingStart: defaultOperatingStart,
		operatingEnd:   defaultOperatingEnd,
		loc:            time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scorer == nil {
		e.scorer = LeadTimeScorer{Horizon: e.horizon, Decay: defaultLeadTimeDecay}
	}
	return e
}

// GenerateOptions returns up to the configured number of safe slots for a
// held booking, best first. An empty slice means no safe option exists in
// the window; it is not an error.
//
// The window end is clamped to the forecast horizon measured from now; a
// window that starts beyond it is rejected with ErrInvalidWindow. Any
// forecast failure or the generation timeout fails the whole call with
// ErrForecastUnavailable; partial lists are never returned.
func (e *Engine) GenerateOptions(ctx context.Context, b *booking.Booking, level minima.TrainingLevel, w Window, avail Availability) ([]Candidate, error) {
	if b.Status != booking.StatusWeatherHold {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrBookingNotOnHold, b.ID, b.Status)
	}
	th, err := e.evaluator.Thresholds(level)
	if err != nil {
		return nil, err
	}
	w = w.withDefaults()
	if err := w.validate(); err != nil {
		return nil, err
	}

	current := e.clock()
	if limit := current.Add(e.horizon); w.End.After(limit) {
		if !limit.After(w.Start) {
			return nil, fmt.Errorf("%w: start %s is beyond the %s forecast horizon", ErrInvalidWindow, w.Start.Format(time.RFC3339), e.horizon)
		}
		w.End = limit
	}
	starts := e.slots(b, w, avail, current)
	if len(starts) == 0 {
		return []Candidate{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	results := make([]*Slot, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, start := range starts {
		g.Go(func() error {
			a, err := assess(gctx, e.source, e.evaluator, b, level, start)
			if err != nil {
				return err
			}
			if a.verdict.Safe {
				results[i] = &Slot{
					Start:     start,
					LeadTime:  start.Sub(current),
					Forecasts: a.forecasts,
					Verdict:   a.verdict,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, minima.ErrInvalidTrainingLevel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrForecastUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForecastUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, s := range results {
		if s == nil {
			continue
		}
		confidence := clamp(e.scorer.Score(*s), 0, 1)
		candidates = append(candidates, Candidate{
			BookingID:       b.ID,
			DateTime:        s.Start,
			Reasoning:       explain(b, th, level, *s, confidence),
			WeatherForecast: describeForecast(b, s.Forecasts),
			Confidence:      confidence,
		})
	}
	Rank(candidates)
	if len(candidates) > e.maxCandidates {
		candidates = candidates[:e.maxCandidates]
	}
	return candidates, nil
}

// Rank sorts candidates by descending confidence, ties by earlier time, and
// assigns dense priorities starting at 1.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].DateTime.Before(candidates[j].DateTime)
	})
	for i := range candidates {
		candidates[i].Priority = i + 1
	}
}

// slots enumerates hour-aligned start times inside the window, operating
// hours and everyone's availability. The booking's current time is skipped.
func (e *Engine) slots(b *booking.Booking, w Window, avail Availability, current time.Time) []time.Time {
	from := w.Start
	if from.Before(current) {
		from = current
	}
	from = from.In(e.loc)

	t := now.With(from).BeginningOfHour()
	if t.Before(from) {
		t = t.Add(time.Hour)
	}

	participants := b.Participants()
	var out []time.Time
	for ; !t.Add(w.Duration).After(w.End) && len(out) < maxSlots; t = t.Add(w.Step) {
		day := now.With(t).BeginningOfDay()
		open := day.Add(time.Duration(e.operatingStart) * time.Hour)
		closing := day.Add(time.Duration(e.operatingEnd) * time.Hour)
		if t.Before(open) || t.Add(w.Duration).After(closing) {
			continue
		}
		if t.Equal(b.ScheduledDate) {
			continue
		}
		if !avail.Free(participants, model.Interval{Start: t, End: t.Add(w.Duration)}) {
			continue
		}
		out = append(out, t)
	}
	return out
}
