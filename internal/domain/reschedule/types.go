// Package reschedule proposes and confirms safe alternative times for
// bookings held for weather.
package reschedule

import (
	"fmt"
	"math"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// Default slot shape.
const (
	defaultStep     = time.Hour
	defaultDuration = 2 * time.Hour
)

// Window bounds the search for alternative slots.
type Window struct {
	Start time.Time
	End   time.Time
	// Step is the spacing between candidate start times.
	Step time.Duration
	// Duration is how long each flight occupies its participants.
	Duration time.Duration
}

func (w Window) withDefaults() Window {
	if w.Step <= 0 {
		w.Step = defaultStep
	}
	if w.Duration <= 0 {
		w.Duration = defaultDuration
	}
	return w
}

func (w Window) validate() error {
	switch {
	case w.Start.IsZero() || w.End.IsZero():
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	case !w.End.After(w.Start):
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// Availability holds externally supplied busy intervals per participant id
// (student, instructor, aircraft).
type Availability struct {
	Busy map[string][]model.Interval
}

// Free reports whether none of participants is busy during slot.
func (a Availability) Free(participants []string, slot model.Interval) bool {
	for _, id := range participants {
		for _, busy := range a.Busy[id] {
			if busy.Overlaps(slot) {
				return false
			}
		}
	}
	return true
}

// Candidate is a proposed new time for a held booking.
type Candidate struct {
	BookingID       string    `json:"bookingId"`
	DateTime        time.Time `json:"dateTime"`
	Reasoning       string    `json:"reasoning"`
	WeatherForecast string    `json:"weatherForecast"`
	Priority        int       `json:"priority"`
	Confidence      float64   `json:"confidence"`
}

// Slot is everything known about one surviving start time; Scorer
// implementations derive confidence from it.
type Slot struct {
	Start     time.Time
	LeadTime  time.Duration
	Forecasts []weather.Forecast // one per booking location, departure first
	Verdict   safety.Verdict
}

// Certainty is the weakest source certainty across the slot's locations.
func (s Slot) Certainty() float64 {
	if len(s.Forecasts) == 0 {
		return 0
	}
	c := 1.0
	for _, f := range s.Forecasts {
		c = math.Min(c, f.Certainty)
	}
	return c
}

// Scorer assigns a confidence in [0,1] to a safe slot.
type Scorer interface {
	Score(s Slot) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(s Slot) float64

// Score calls f.
func (f ScorerFunc) Score(s Slot) float64 { return f(s) }

// LeadTimeScorer discounts source certainty linearly with lead time:
// confidence = certainty * (1 - Decay*lead/Horizon), lead capped at Horizon.
// Nearer slots therefore never score below farther ones of equal certainty.
type LeadTimeScorer struct {
	Horizon time.Duration
	Decay   float64
}

// Score implements Scorer.
func (s LeadTimeScorer) Score(slot Slot) float64 {
	frac := 0.0
	if s.Horizon > 0 {
		frac = float64(slot.LeadTime) / float64(s.Horizon)
	}
	frac = clamp(frac, 0, 1)
	decay := clamp(s.Decay, 0, 1)
	return roundConfidence(clamp(slot.Certainty()*(1-decay*frac), 0, 1))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// roundConfidence keeps three decimals so equal-looking scores tie and fall
// back to the time ordering.
func roundConfidence(x float64) float64 {
	return math.Round(x*1000) / 1000
}
