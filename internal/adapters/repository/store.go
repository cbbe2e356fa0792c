// Package repository persists bookings, their history and the pilot
// directory.
package repository

import (
	"context"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
)

// Filter narrows List. Zero fields match everything; From and To bound
// ScheduledDate as [From, To).
type Filter struct {
	Status       booking.Status
	StudentID    string
	InstructorID string
	From         time.Time
	To           time.Time
}

func (f Filter) matches(b *booking.Booking) bool {
	switch {
	case f.Status != "" && b.Status != f.Status:
		return false
	case f.StudentID != "" && b.StudentID != f.StudentID:
		return false
	case f.InstructorID != "" && b.InstructorID != f.InstructorID:
		return false
	}
	return true
}

// BookingStore reads and writes bookings. Bookings are copied in and out;
// callers never share memory with the store.
type BookingStore interface {
	// Create stores a new booking with its creation events.
	// Returns ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, b *booking.Booking, events ...booking.HistoryEvent) error

	// Get returns the booking or ErrNotFound.
	Get(ctx context.Context, id string) (*booking.Booking, error)

	// Save replaces the booking if the stored version still equals
	// expectedVersion, and appends events in the same step.
	// Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, b *booking.Booking, expectedVersion int64, events ...booking.HistoryEvent) error

	// List returns matching bookings ordered by scheduled date, then id.
	List(ctx context.Context, f Filter) ([]*booking.Booking, error)

	// Busy returns, per participant, the intervals occupied by active
	// bookings that overlap window. excludeID is skipped.
	Busy(ctx context.Context, participants []string, window model.Interval, flight time.Duration, excludeID string) (map[string][]model.Interval, error)

	// CountByStatus returns the number of bookings per status.
	CountByStatus(ctx context.Context) map[booking.Status]int
}

// HistoryStore reads the append-only booking history.
type HistoryStore interface {
	// Append records events outside a booking write.
	Append(ctx context.Context, events ...booking.HistoryEvent) error

	// History returns a booking's events oldest first, or ErrNotFound
	// for an unknown booking.
	History(ctx context.Context, bookingID string) ([]booking.HistoryEvent, error)
}

// PilotStore is the pilot directory.
type PilotStore interface {
	PutPilot(ctx context.Context, p booking.Pilot) error
	GetPilot(ctx context.Context, id string) (booking.Pilot, error)
}

// Store combines every store.
type Store interface {
	BookingStore
	HistoryStore
	PilotStore
}
