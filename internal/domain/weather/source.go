package weather

import (
	"context"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
)

// Forecast is a Conditions sample plus the source's confidence in it.
type Forecast struct {
	Conditions Conditions
	// Certainty is the source's own confidence in [0,1]. Observations
	// (lead time zero) are reported with certainty 1.
	Certainty float64
}

// Source supplies observed or forecast weather for a location and time.
// Implementations must wrap failures with ErrSourceUnavailable and must
// never fabricate a default sample on failure.
type Source interface {
	Forecast(ctx context.Context, loc model.Location, at time.Time) (Forecast, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, loc model.Location, at time.Time) (Forecast, error)

// Forecast calls f.
func (f SourceFunc) Forecast(ctx context.Context, loc model.Location, at time.Time) (Forecast, error) {
	return f(ctx, loc, at)
}
