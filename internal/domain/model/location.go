// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidLocation is returned when a Location fails validation.
var ErrInvalidLocation = errors.New("invalid location")

// Location is a named point, typically an airport.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Validate checks the name and coordinate ranges.
func (l Location) Validate() error {
	switch {
	case strings.TrimSpace(l.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidLocation)
	case l.Lat < -90 || l.Lat > 90:
		return fmt.Errorf("%w: latitude %.4f out of range", ErrInvalidLocation, l.Lat)
	case l.Lon < -180 || l.Lon > 180:
		return fmt.Errorf("%w: longitude %.4f out of range", ErrInvalidLocation, l.Lon)
	}
	return nil
}

func (l Location) String() string { return l.Name }

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether i and o share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether t lies in i.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}
