// Package weather defines immutable weather samples and the forecast source
// contract consumed by the scheduling core.
package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Ceiling is the height of the lowest broken or overcast layer.
// The zero value is an unlimited ceiling.
type Ceiling struct {
	feet    float64
	limited bool
}

// Unlimited returns a ceiling with no limiting layer.
func Unlimited() Ceiling { return Ceiling{} }

// CeilingAt returns a limited ceiling at feet AGL.
func CeilingAt(feet float64) Ceiling { return Ceiling{feet: feet, limited: true} }

// Limited reports whether a limiting layer exists.
func (c Ceiling) Limited() bool { return c.limited }

// Feet returns the ceiling height; ok is false for an unlimited ceiling.
func (c Ceiling) Feet() (feet float64, ok bool) { return c.feet, c.limited }

// Below reports whether the ceiling is limited and lower than minFt.
// An unlimited ceiling is never below any minimum.
func (c Ceiling) Below(minFt float64) bool { return c.limited && c.feet < minFt }

func (c Ceiling) String() string {
	if !c.limited {
		return "unlimited"
	}
	return fmt.Sprintf("%.0f ft", c.feet)
}

// Observation carries raw values for NewConditions. Optional fields use
// pointers here only; Conditions exposes them through accessors.
type Observation struct {
	VisibilitySM  float64
	CeilingFt     *float64 // nil means unlimited
	WindSpeedKt   float64
	WindDirection *int // degrees 0-359, nil when variable or calm
	TemperatureF  float64
	Humidity      float64 // percent 0-100
	Precipitation bool
	Thunderstorms bool
	Icing         bool
	CloudCover    *float64 // percent 0-100
	Description   string
	Time          time.Time
}

// Conditions is an immutable snapshot of observed or forecast weather at one
// place and time. Build with NewConditions.
type Conditions struct {
	visibilitySM  float64
	ceiling       Ceiling
	windSpeedKt   float64
	windDirection int
	hasWindDir    bool
	temperatureF  float64
	humidity      float64
	precipitation bool
	thunderstorms bool
	icing         bool
	cloudCover    float64
	hasCloudCover bool
	description   string
	at            time.Time
}

// NewConditions validates obs and returns the immutable snapshot.
func NewConditions(obs Observation) (Conditions, error) {
	switch {
	case invalidNumber(obs.VisibilitySM) || obs.VisibilitySM < 0:
		return Conditions{}, fmt.Errorf("%w: visibility %.2f", ErrInvalidConditions, obs.VisibilitySM)
	case invalidNumber(obs.WindSpeedKt) || obs.WindSpeedKt < 0:
		return Conditions{}, fmt.Errorf("%w: wind speed %.2f", ErrInvalidConditions, obs.WindSpeedKt)
	case invalidNumber(obs.Humidity) || obs.Humidity < 0 || obs.Humidity > 100:
		return Conditions{}, fmt.Errorf("%w: humidity %.2f", ErrInvalidConditions, obs.Humidity)
	case invalidNumber(obs.TemperatureF):
		return Conditions{}, fmt.Errorf("%w: temperature", ErrInvalidConditions)
	case obs.Time.IsZero():
		return Conditions{}, fmt.Errorf("%w: missing timestamp", ErrInvalidConditions)
	}

	c := Conditions{
		visibilitySM:  obs.VisibilitySM,
		ceiling:       Unlimited(),
		windSpeedKt:   obs.WindSpeedKt,
		temperatureF:  obs.TemperatureF,
		humidity:      obs.Humidity,
		precipitation: obs.Precipitation,
		thunderstorms: obs.Thunderstorms,
		icing:         obs.Icing,
		description:   strings.TrimSpace(obs.Description),
		at:            obs.Time,
	}
	if obs.CeilingFt != nil {
		if invalidNumber(*obs.CeilingFt) || *obs.CeilingFt < 0 {
			return Conditions{}, fmt.Errorf("%w: ceiling %.0f", ErrInvalidConditions, *obs.CeilingFt)
		}
		c.ceiling = CeilingAt(*obs.CeilingFt)
	}
	if obs.WindDirection != nil {
		if *obs.WindDirection < 0 || *obs.WindDirection > 359 {
			return Conditions{}, fmt.Errorf("%w: wind direction %d", ErrInvalidConditions, *obs.WindDirection)
		}
		c.windDirection, c.hasWindDir = *obs.WindDirection, true
	}
	if obs.CloudCover != nil {
		if invalidNumber(*obs.CloudCover) || *obs.CloudCover < 0 || *obs.CloudCover > 100 {
			return Conditions{}, fmt.Errorf("%w: cloud cover %.0f", ErrInvalidConditions, *obs.CloudCover)
		}
		c.cloudCover, c.hasCloudCover = *obs.CloudCover, true
	}
	return c, nil
}

func invalidNumber(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }

func (c Conditions) VisibilitySM() float64 { return c.visibilitySM }
func (c Conditions) Ceiling() Ceiling      { return c.ceiling }
func (c Conditions) WindSpeedKt() float64  { return c.windSpeedKt }
func (c Conditions) TemperatureF() float64 { return c.temperatureF }
func (c Conditions) Humidity() float64     { return c.humidity }
func (c Conditions) Precipitation() bool   { return c.precipitation }
func (c Conditions) Thunderstorms() bool   { return c.thunderstorms }
func (c Conditions) Icing() bool           { return c.icing }
func (c Conditions) Description() string   { return c.description }
func (c Conditions) Time() time.Time       { return c.at }

// WindDirection returns the direction in degrees; ok is false when unknown.
func (c Conditions) WindDirection() (deg int, ok bool) { return c.windDirection, c.hasWindDir }

// CloudCover returns the cover percentage; ok is false when unknown.
func (c Conditions) CloudCover() (pct float64, ok bool) { return c.cloudCover, c.hasCloudCover }

// Summary renders the conditions as a single line, e.g.
// "Clear, visibility 10.0 SM, ceiling unlimited, wind 270° at 8 kt, 68°F, humidity 45%".
func (c Conditions) Summary() string {
	var b strings.Builder
	if c.description != "" {
		b.WriteString(c.description)
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "visibility %.1f SM, ceiling %s, wind ", c.visibilitySM, c.ceiling)
	if c.hasWindDir {
		fmt.Fprintf(&b, "%03d° at ", c.windDirection)
	}
	fmt.Fprintf(&b, "%.0f kt, %.0f°F, humidity %.0f%%", c.windSpeedKt, c.temperatureF, c.humidity)
	if c.hasCloudCover {
		fmt.Fprintf(&b, ", cloud cover %.0f%%", c.cloudCover)
	}
	var hazards []string
	if c.precipitation {
		hazards = append(hazards, "precipitation")
	}
	if c.thunderstorms {
		hazards = append(hazards, "thunderstorms")
	}
	if c.icing {
		hazards = append(hazards, "icing")
	}
	if len(hazards) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(hazards, " and "))
	}
	return b.String()
}
