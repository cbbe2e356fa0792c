package forecast

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// Default simulator configuration constants.
const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 60 * time.Millisecond
	defaultSeed       = 42
	defaultHorizon    = 5 * 24 * time.Hour
	systemBlock       = 3 * time.Hour // weather regimes persist for this long
	maxCertainty      = 0.95
	minCertainty      = 0.5
)

// regime is a weather pattern the simulator can draw.
type regime struct {
	weight      float64
	description string
	visibility  [2]float64 // statute miles
	ceiling     [2]float64 // feet; zero means unlimited
	wind        [2]float64 // knots
	cloudCover  [2]float64 // percent
	precip      bool
	storms      bool
	icingBelowF float64 // icing when colder than this
}

var regimes = []regime{ //nolint:gochecknoglobals // static climate table
	{weight: 0.45, description: "Clear", visibility: [2]float64{10, 10}, wind: [2]float64{0, 9}, cloudCover: [2]float64{0, 10}},
	{weight: 0.20, description: "Scattered clouds", visibility: [2]float64{7, 10}, ceiling: [2]float64{4000, 8000}, wind: [2]float64{5, 14}, cloudCover: [2]float64{25, 50}},
	{weight: 0.12, description: "Marginal, overcast", visibility: [2]float64{3, 6}, ceiling: [2]float64{1200, 3000}, wind: [2]float64{6, 16}, cloudCover: [2]float64{80, 100}},
	{weight: 0.08, description: "Fog", visibility: [2]float64{0.25, 2}, ceiling: [2]float64{100, 600}, wind: [2]float64{0, 5}, cloudCover: [2]float64{100, 100}},
	{weight: 0.07, description: "Gusty winds", visibility: [2]float64{8, 10}, ceiling: [2]float64{5000, 9000}, wind: [2]float64{18, 32}, cloudCover: [2]float64{10, 40}},
	{weight: 0.05, description: "Rain showers", visibility: [2]float64{2, 5}, ceiling: [2]float64{900, 2500}, wind: [2]float64{8, 20}, cloudCover: [2]float64{70, 100}, precip: true, icingBelowF: 34},
	{weight: 0.03, description: "Thunderstorms", visibility: [2]float64{1, 4}, ceiling: [2]float64{1500, 3500}, wind: [2]float64{15, 35}, cloudCover: [2]float64{90, 100}, precip: true, storms: true},
}

// SimulatedSource produces deterministic synthetic forecasts. The same seed,
// location and hour always yield the same conditions, so a slot re-checked at
// confirmation sees what was proposed. Lookups sleep for a random latency to
// model a remote API.
type SimulatedSource struct {
	seed       int64
	minLatency time.Duration
	maxLatency time.Duration
	horizon    time.Duration
	clock      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand // latency only
}

// SimulatedOption configures a SimulatedSource.
type SimulatedOption func(*SimulatedSource)

// WithLatencyRange sets the simulated latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(s *SimulatedSource) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed sets the seed that determines generated weather.
func WithSeed(seed int64) SimulatedOption {
	return func(s *SimulatedSource) {
		s.seed = seed
	}
}

// WithHorizon sets how far ahead forecasts are available.
func WithHorizon(d time.Duration) SimulatedOption {
	return func(s *SimulatedSource) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// WithSimulatedClock sets the time source used for lead time.
func WithSimulatedClock(clock func() time.Time) SimulatedOption {
	return func(s *SimulatedSource) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSimulatedSource creates a simulator with configuration options.
func NewSimulatedSource(opts ...SimulatedOption) *SimulatedSource {
	s := &SimulatedSource{
		seed:       defaultSeed,
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		horizon:    defaultHorizon,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // simulation, not security
	return s
}

// Forecast implements weather.Source.
func (s *SimulatedSource) Forecast(ctx context.Context, loc model.Location, at time.Time) (weather.Forecast, error) {
	select {
	case <-ctx.Done():
		return weather.Forecast{}, fmt.Errorf("%w: %w", weather.ErrSourceUnavailable, ctx.Err())
	case <-time.After(s.latency()):
	}

	lead := at.Sub(s.clock())
	if lead > s.horizon {
		return weather.Forecast{}, fmt.Errorf("%w: %s is beyond the %s forecast horizon",
			weather.ErrSourceUnavailable, at.UTC().Format(time.RFC3339), s.horizon)
	}

	hour := at.UTC().Truncate(time.Hour)
	c, err := s.generate(loc, hour)
	if err != nil {
		return weather.Forecast{}, fmt.Errorf("%w: %w", weather.ErrSourceUnavailable, err)
	}
	return weather.Forecast{Conditions: c, Certainty: s.certainty(lead)}, nil
}

func (s *SimulatedSource) latency() time.Duration {
	if s.maxLatency <= s.minLatency {
		return s.minLatency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
}

// certainty falls linearly from maxCertainty now to minCertainty at the
// horizon. Observations (no lead time) are certain.
func (s *SimulatedSource) certainty(lead time.Duration) float64 {
	if lead <= 0 {
		return 1
	}
	frac := math.Min(1, float64(lead)/float64(s.horizon))
	return math.Round((maxCertainty-(maxCertainty-minCertainty)*frac)*1000) / 1000
}

func (s *SimulatedSource) stream(parts ...any) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprint(h, s.seed)
	for _, p := range parts {
		fmt.Fprint(h, "|", p)
	}
	return rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // simulation, not security
}

func (s *SimulatedSource) generate(loc model.Location, hour time.Time) (weather.Conditions, error) {
	block := hour.Truncate(systemBlock)
	r := pick(s.stream(loc.Name, block.Unix()).Float64())
	rng := s.stream(loc.Name, hour.Unix())

	between := func(b [2]float64) float64 { return b[0] + rng.Float64()*(b[1]-b[0]) }

	// Diurnal temperature around a latitude-dependent mean.
	mean := 75 - math.Abs(loc.Lat)*0.6
	temp := mean + 12*math.Sin(2*math.Pi*float64(hour.Hour()-9)/24) + rng.NormFloat64()*3

	obs := weather.Observation{
		VisibilitySM:  math.Round(between(r.visibility)*4) / 4,
		WindSpeedKt:   math.Round(between(r.wind)),
		TemperatureF:  math.Round(temp),
		Humidity:      math.Round(math.Min(100, 40+r.cloudCover[1]*0.5+rng.Float64()*10)),
		Precipitation: r.precip,
		Thunderstorms: r.storms,
		Icing:         r.precip && temp < r.icingBelowF,
		Description:   r.description,
		Time:          hour,
	}
	if r.ceiling[1] > 0 {
		ft := math.Round(between(r.ceiling)/100) * 100
		obs.CeilingFt = &ft
	}
	if obs.WindSpeedKt > 0 {
		dir := rng.Intn(36) * 10
		obs.WindDirection = &dir
	}
	cover := math.Round(between(r.cloudCover))
	obs.CloudCover = &cover

	return weather.NewConditions(obs)
}

func pick(x float64) regime {
	var total float64
	for _, r := range regimes {
		total += r.weight
	}
	x *= total
	for _, r := range regimes {
		if x < r.weight {
			return r
		}
		x -= r.weight
	}
	return regimes[0]
}
