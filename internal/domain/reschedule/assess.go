package reschedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// assessment is the forecast and combined verdict for one start time.
type assessment struct {
	forecasts []weather.Forecast
	verdict   safety.Verdict
}

// assess fetches a forecast for every booking location at `at` and evaluates
// them together. Source errors are returned as-is; callers decide the kind.
func assess(ctx context.Context, src weather.Source, ev *safety.Evaluator, b *booking.Booking, level minima.TrainingLevel, at time.Time) (assessment, error) {
	locs := b.Locations()
	labels := make([]string, len(locs))
	forecasts := make([]weather.Forecast, len(locs))
	verdicts := make([]safety.Verdict, len(locs))

	for i, loc := range locs {
		fc, err := src.Forecast(ctx, loc, at)
		if err != nil {
			return assessment{}, fmt.Errorf("forecast for %s at %s: %w", loc.Name, at.UTC().Format(time.RFC3339), err)
		}
		v, err := ev.Evaluate(fc.Conditions, level)
		if err != nil {
			return assessment{}, err
		}
		labels[i], forecasts[i], verdicts[i] = loc.Name, fc, v
	}
	return assessment{forecasts: forecasts, verdict: safety.Combine(labels, verdicts)}, nil
}

// describeForecast renders "KPAO: <summary> | KMRY: <summary>".
func describeForecast(b *booking.Booking, forecasts []weather.Forecast) string {
	locs := b.Locations()
	parts := make([]string, 0, len(forecasts))
	for i, fc := range forecasts {
		parts = append(parts, locs[i].Name+": "+fc.Conditions.Summary())
	}
	return strings.Join(parts, " | ")
}

// explain builds the reasoning text for a safe slot.
func explain(b *booking.Booking, th minima.Thresholds, level minima.TrainingLevel, s Slot, confidence float64) string {
	locs := b.Locations()
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.Name
	}

	// The tightest margins decide the flight; report the worst location.
	worstVis, worstWind := s.Forecasts[0].Conditions.VisibilitySM(), s.Forecasts[0].Conditions.WindSpeedKt()
	worstCeiling := s.Forecasts[0].Conditions.Ceiling()
	for _, fc := range s.Forecasts[1:] {
		c := fc.Conditions
		if c.VisibilitySM() < worstVis {
			worstVis = c.VisibilitySM()
		}
		if c.WindSpeedKt() > worstWind {
			worstWind = c.WindSpeedKt()
		}
		if ft, ok := c.Ceiling().Feet(); ok {
			if cur, limited := worstCeiling.Feet(); !limited || ft < cur {
				worstCeiling = c.Ceiling()
			}
		}
	}

	return fmt.Sprintf(
		"Forecast at %s is within %s minima: visibility %.1f SM (min %.1f), ceiling %s (min %.0f ft), wind %.0f kt (max %.0f). "+
			"Lead time %.0fh, source certainty %.0f%%, confidence %.0f%%. Student, instructor and aircraft are free.",
		strings.Join(names, " and "), level.Label(),
		worstVis, th.MinVisibilitySM,
		worstCeiling, th.MinCeilingFt,
		worstWind, th.MaxWindKt,
		s.LeadTime.Hours(), s.Certainty()*100, confidence*100,
	)
}
