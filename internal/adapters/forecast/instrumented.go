package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// Instrumented wraps a source with latency and error metrics. Errors that do
// not already carry weather.ErrSourceUnavailable are wrapped with it.
type Instrumented struct {
	name   string
	next   weather.Source
	logger logger.Logger
}

// Instrument wraps next under the metric label name.
func Instrument(name string, next weather.Source) *Instrumented {
	return &Instrumented{name: name, next: next, logger: logger.Named("forecast")}
}

// Forecast implements weather.Source.
func (i *Instrumented) Forecast(ctx context.Context, loc model.Location, at time.Time) (weather.Forecast, error) {
	start := time.Now()
	fc, err := i.next.Forecast(ctx, loc, at)
	metrics.RecordForecast(i.name, float64(time.Since(start).Microseconds())/1000, err)
	if err == nil {
		return fc, nil
	}

	i.logger.Debug(ctx, "forecast lookup failed",
		logger.String("source", i.name),
		logger.String("location", loc.Name),
		logger.Time("at", at),
		logger.Error(err),
	)
	if !errors.Is(err, weather.ErrSourceUnavailable) {
		err = fmt.Errorf("%w: %w", weather.ErrSourceUnavailable, err)
	}
	return weather.Forecast{}, err
}
