// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load layers overrides on top.
//   - Durations are stored as integer hours, minutes or milliseconds so that
//     they can be set from flat environment variables.
//   - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory notification queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of notification workers.
	WorkerCount int `koanf:"worker_count"`

	// AutoRelease returns held bookings to CONFIRMED when a later check is safe.
	AutoRelease bool `koanf:"auto_release"`

	// MetricsIntervalSeconds is how often gauges are refreshed.
	MetricsIntervalSeconds int `koanf:"metrics_interval_seconds"`

	Reschedule RescheduleConfig `koanf:"reschedule"`
	Weather    WeatherConfig    `koanf:"weather"`

	// Minima overrides the built-in thresholds, keyed by lower-case level
	// name (student_pilot, private_pilot, instrument_rated).
	Minima map[string]MinimaConfig `koanf:"minima"`
}

// RescheduleConfig tunes candidate generation.
type RescheduleConfig struct {
	MaxCandidates      int     `koanf:"max_candidates"`
	HorizonHours       int     `koanf:"horizon_hours"`
	StepMinutes        int     `koanf:"step_minutes"`
	FlightMinutes      int     `koanf:"flight_minutes"`
	TimeoutMS          int     `koanf:"timeout_ms"`
	Concurrency        int     `koanf:"concurrency"`
	OperatingStartHour int     `koanf:"operating_start_hour"`
	OperatingEndHour   int     `koanf:"operating_end_hour"`
	LeadTimeDecay      float64 `koanf:"lead_time_decay"`
}

// WeatherConfig configures the simulated forecast source.
type WeatherConfig struct {
	LatencyMinMS int   `koanf:"latency_min_ms"`
	LatencyMaxMS int   `koanf:"latency_max_ms"`
	Seed         int64 `koanf:"seed"`
	HorizonHours int   `koanf:"horizon_hours"`
	TimeoutMS    int   `koanf:"timeout_ms"`
}

// MinimaConfig is one row of the minima table.
type MinimaConfig struct {
	MinVisibilitySM         float64 `koanf:"min_visibility_sm"`
	MinCeilingFt            float64 `koanf:"min_ceiling_ft"`
	MaxWindKt               float64 `koanf:"max_wind_kt"`
	ThunderstormsDisqualify bool    `koanf:"thunderstorms_disqualify"`
	IcingDisqualify         bool    `koanf:"icing_disqualify"`
}

// New returns a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU(),
		MetricsIntervalSeconds: 5,
		Reschedule: RescheduleConfig{
			MaxCandidates:      5,
			HorizonHours:       72,
			StepMinutes:        60,
			FlightMinutes:      120,
			TimeoutMS:          10_000,
			Concurrency:        8,
			OperatingStartHour: 7,
			OperatingEndHour:   19,
			LeadTimeDecay:      0.5,
		},
		Weather: WeatherConfig{
			LatencyMinMS: 20,
			LatencyMaxMS: 60,
			Seed:         42,
			HorizonHours: 120,
			TimeoutMS:    10_000,
		},
		Minima: make(map[string]MinimaConfig),
	}
	for lvl, th := range minima.DefaultTable() {
		c.Minima[levelKey(lvl)] = MinimaConfig(th)
	}
	return c
}

func levelKey(l minima.TrainingLevel) string { return strings.ToLower(string(l)) }

// Validate checks ranges and the minima table.
func (c *Config) Validate() error {
	r, w := c.Reschedule, c.Weather
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize <= 0 || c.WorkerCount <= 0:
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	case c.MetricsIntervalSeconds <= 0:
		return fmt.Errorf("%w: metrics_interval_seconds must be positive", ErrInvalidConfig)
	case r.MaxCandidates <= 0 || r.Concurrency <= 0:
		return fmt.Errorf("%w: reschedule.max_candidates and reschedule.concurrency must be positive", ErrInvalidConfig)
	case r.HorizonHours <= 0 || r.StepMinutes <= 0 || r.FlightMinutes <= 0 || r.TimeoutMS <= 0:
		return fmt.Errorf("%w: reschedule durations must be positive", ErrInvalidConfig)
	case r.OperatingStartHour < 0 || r.OperatingEndHour > 24 || r.OperatingStartHour >= r.OperatingEndHour:
		return fmt.Errorf("%w: operating hours %d-%d", ErrInvalidConfig, r.OperatingStartHour, r.OperatingEndHour)
	case r.LeadTimeDecay < 0 || r.LeadTimeDecay > 1:
		return fmt.Errorf("%w: reschedule.lead_time_decay must be within [0,1]", ErrInvalidConfig)
	case w.LatencyMinMS < 0 || w.LatencyMaxMS < w.LatencyMinMS:
		return fmt.Errorf("%w: weather latency range %d-%d", ErrInvalidConfig, w.LatencyMinMS, w.LatencyMaxMS)
	case w.HorizonHours <= 0 || w.TimeoutMS <= 0:
		return fmt.Errorf("%w: weather durations must be positive", ErrInvalidConfig)
	case r.HorizonHours > w.HorizonHours:
		return fmt.Errorf("%w: reschedule.horizon_hours %d exceeds weather.horizon_hours %d", ErrInvalidConfig, r.HorizonHours, w.HorizonHours)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the minima policy from the configured table.
func (c *Config) Policy() (*minima.Policy, error) {
	table := make(map[minima.TrainingLevel]minima.Thresholds, len(c.Minima))
	for name, row := range c.Minima {
		lvl, err := minima.ParseTrainingLevel(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if _, dup := table[lvl]; dup {
			return nil, fmt.Errorf("%w: minima for %s given twice", ErrInvalidConfig, lvl)
		}
		table[lvl] = minima.Thresholds(row)
	}
	p, err := minima.NewPolicy(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}

// RescheduleHorizon is the default search window length.
func (c *Config) RescheduleHorizon() time.Duration {
	return time.Duration(c.Reschedule.HorizonHours) * time.Hour
}

// ForecastHorizon is how far ahead the weather source forecasts. Reschedule
// searches never look past it.
func (c *Config) ForecastHorizon() time.Duration {
	return time.Duration(c.Weather.HorizonHours) * time.Hour
}

// SlotStep is the spacing between candidate start times.
func (c *Config) SlotStep() time.Duration {
	return time.Duration(c.Reschedule.StepMinutes) * time.Minute
}

// FlightDuration is the assumed length of every lesson.
func (c *Config) FlightDuration() time.Duration {
	return time.Duration(c.Reschedule.FlightMinutes) * time.Minute
}

// RescheduleTimeout bounds one options search.
func (c *Config) RescheduleTimeout() time.Duration {
	return time.Duration(c.Reschedule.TimeoutMS) * time.Millisecond
}

// ForecastTimeout bounds a single weather check.
func (c *Config) ForecastTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutMS) * time.Millisecond
}

// MetricsInterval is how often gauges are refreshed.
func (c *Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalSeconds) * time.Second
}
