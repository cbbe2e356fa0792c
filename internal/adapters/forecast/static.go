// Package forecast provides weather.Source implementations: recorded samples,
// a seeded simulator and a metrics wrapper.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// Default static source configuration constants.
const (
	defaultTolerance       = 30 * time.Minute
	defaultStaticCertainty = 1.0
)

// StaticSource serves recorded samples, returning the one nearest the
// requested time. Lookups with no sample within the tolerance fail.
type StaticSource struct {
	mu        sync.RWMutex
	samples   map[string][]weather.Conditions // by upper-cased location name, sorted by time
	tolerance time.Duration
	certainty float64
}

// StaticOption configures a StaticSource.
type StaticOption func(*StaticSource)

// WithTolerance sets how far a sample may be from the requested time.
func WithTolerance(d time.Duration) StaticOption {
	return func(s *StaticSource) {
		if d >= 0 {
			s.tolerance = d
		}
	}
}

// WithCertainty sets the certainty reported for every sample.
func WithCertainty(c float64) StaticOption {
	return func(s *StaticSource) {
		if c >= 0 && c <= 1 {
			s.certainty = c
		}
	}
}

// NewStaticSource creates an empty StaticSource.
func NewStaticSource(opts ...StaticOption) *StaticSource {
	s := &StaticSource{
		samples:   make(map[string][]weather.Conditions),
		tolerance: defaultTolerance,
		certainty: defaultStaticCertainty,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(name string) string { return strings.ToUpper(strings.TrimSpace(name)) }

// Add records samples for a location. A sample at an existing time replaces it.
func (s *StaticSource) Add(location string, samples ...weather.Conditions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(location)
	list := s.samples[k]
	for _, c := range samples {
		i := sort.Search(len(list), func(i int) bool { return !list[i].Time().Before(c.Time()) })
		if i < len(list) && list[i].Time().Equal(c.Time()) {
			list[i] = c
			continue
		}
		list = append(list, weather.Conditions{})
		copy(list[i+1:], list[i:])
		list[i] = c
	}
	s.samples[k] = list
}

// Forecast implements weather.Source.
func (s *StaticSource) Forecast(ctx context.Context, loc model.Location, at time.Time) (weather.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return weather.Forecast{}, fmt.Errorf("%w: %w", weather.ErrSourceUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.samples[key(loc.Name)]
	if len(list) == 0 {
		return weather.Forecast{}, fmt.Errorf("%w: no samples for %s", weather.ErrSourceUnavailable, loc.Name)
	}

	i := sort.Search(len(list), func(i int) bool { return !list[i].Time().Before(at) })
	best := -1
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(list) {
			continue
		}
		if best < 0 || absDuration(list[j].Time().Sub(at)) < absDuration(list[best].Time().Sub(at)) {
			best = j
		}
	}
	if absDuration(list[best].Time().Sub(at)) > s.tolerance {
		return weather.Forecast{}, fmt.Errorf("%w: no sample for %s within %s of %s",
			weather.ErrSourceUnavailable, loc.Name, s.tolerance, at.UTC().Format(time.RFC3339))
	}
	return weather.Forecast{Conditions: list[best], Certainty: s.certainty}, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
