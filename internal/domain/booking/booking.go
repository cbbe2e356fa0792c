// Package booking owns a flight booking's status lifecycle and its
// append-only history.
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
)

// Status is a booking's lifecycle state.
type Status string

// Booking statuses. Cancelled and Completed are terminal.
const (
	StatusConfirmed   Status = "CONFIRMED"
	StatusWeatherHold Status = "WEATHER_HOLD"
	StatusCancelled   Status = "CANCELLED"
	StatusCompleted   Status = "COMPLETED"
)

// Statuses returns every status.
func Statuses() []Status {
	return []Status{StatusConfirmed, StatusWeatherHold, StatusCancelled, StatusCompleted}
}

func (s Status) String() string { return string(s) }

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusWeatherHold, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ParseStatus accepts the canonical name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidBooking, s)
	}
	return st, nil
}

// Booking is a scheduled training flight.
type Booking struct {
	ID                  string          `json:"id"`
	StudentID           string          `json:"studentId"`
	InstructorID        string          `json:"instructorId"`
	AircraftID          string          `json:"aircraftId"`
	ScheduledDate       time.Time       `json:"scheduledDate"`
	DepartureLocation   model.Location  `json:"departureLocation"`
	DestinationLocation *model.Location `json:"destinationLocation,omitempty"`
	Status              Status          `json:"status"`
	FlightType          string          `json:"flightType"`
	Notes               string          `json:"notes"`
	LatestVerdict       *safety.Verdict `json:"latestVerdict,omitempty"`

	// Version increases with every recorded change; stores use it for
	// optimistic concurrency.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Scheduled dates outside [EarliestSchedule, LatestSchedule) are rejected;
// stores order bookings by their nanosecond timestamp.
var (
	EarliestSchedule = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	LatestSchedule   = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)

func checkSchedule(t time.Time) error {
	if t.Before(EarliestSchedule) || !t.Before(LatestSchedule) {
		return fmt.Errorf("%w: scheduled date %s outside %d-%d", ErrInvalidBooking,
			t.UTC().Format(time.RFC3339), EarliestSchedule.Year(), LatestSchedule.Year())
	}
	return nil
}

// Validate checks the fields required at creation.
func (b *Booking) Validate() error {
	switch {
	case strings.TrimSpace(b.StudentID) == "":
		return fmt.Errorf("%w: missing student id", ErrInvalidBooking)
	case strings.TrimSpace(b.InstructorID) == "":
		return fmt.Errorf("%w: missing instructor id", ErrInvalidBooking)
	case strings.TrimSpace(b.AircraftID) == "":
		return fmt.Errorf("%w: missing aircraft id", ErrInvalidBooking)
	case b.ScheduledDate.IsZero():
		return fmt.Errorf("%w: missing scheduled date", ErrInvalidBooking)
	}
	if err := checkSchedule(b.ScheduledDate); err != nil {
		return err
	}
	if err := b.DepartureLocation.Validate(); err != nil {
		return fmt.Errorf("%w: departure: %w", ErrInvalidBooking, err)
	}
	if b.DestinationLocation != nil {
		if err := b.DestinationLocation.Validate(); err != nil {
			return fmt.Errorf("%w: destination: %w", ErrInvalidBooking, err)
		}
	}
	return nil
}

// Locations returns the departure and, when set, destination.
func (b *Booking) Locations() []model.Location {
	locs := []model.Location{b.DepartureLocation}
	if b.DestinationLocation != nil {
		locs = append(locs, *b.DestinationLocation)
	}
	return locs
}

// Participants returns the ids whose calendars a reschedule must respect.
func (b *Booking) Participants() []string {
	return []string{b.StudentID, b.InstructorID, b.AircraftID}
}

// Clone returns a deep copy.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.DestinationLocation != nil {
		dst := *b.DestinationLocation
		c.DestinationLocation = &dst
	}
	if b.LatestVerdict != nil {
		v := *b.LatestVerdict
		v.Violations = make([]safety.Violation, len(b.LatestVerdict.Violations))
		copy(v.Violations, b.LatestVerdict.Violations)
		c.LatestVerdict = &v
	}
	return &c
}
