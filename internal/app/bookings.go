package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/mq/queue"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/repository"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// RegisterPilot adds or replaces a pilot directory entry.
func (s *Service) RegisterPilot(ctx context.Context, p booking.Pilot) error {
	store, _, err := s.deps()
	if err != nil {
		return err
	}
	if err := store.PutPilot(ctx, p); err != nil {
		return fmt.Errorf("register pilot %s: %w", p.ID, err)
	}
	s.logger.Info(ctx, "pilot registered",
		logger.String("pilotId", p.ID),
		logger.String("trainingLevel", p.TrainingLevel.String()),
	)
	return nil
}

// GetPilot returns a pilot directory entry.
func (s *Service) GetPilot(ctx context.Context, id string) (booking.Pilot, error) {
	store, _, err := s.deps()
	if err != nil {
		return booking.Pilot{}, err
	}
	return store.GetPilot(ctx, id)
}

// CreateBooking validates and stores a new CONFIRMED booking. None of its
// participants may already be booked over the same flight time.
func (s *Service) CreateBooking(ctx context.Context, b *booking.Booking, actor string) (*booking.Booking, error) {
	store, q, err := s.deps()
	if err != nil {
		return nil, err
	}

	b = b.Clone()
	ev, err := s.machine.Create(b, actor)
	if err != nil {
		return nil, err
	}
	if err := s.checkFree(ctx, store, b, b.ScheduledDate); err != nil {
		return nil, err
	}
	if err := store.Create(ctx, b, ev); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info(ctx, "booking created",
		logger.String("bookingId", b.ID),
		logger.Time("scheduledDate", b.ScheduledDate),
	)
	s.notify(ctx, q, b, ev)
	return b, nil
}

// GetBooking returns a booking by id.
func (s *Service) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// ListBookings returns bookings matching f in schedule order.
func (s *Service) ListBookings(ctx context.Context, f repository.Filter) ([]*booking.Booking, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, f)
}

// History returns a booking's change log, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]booking.HistoryEvent, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	return store.History(ctx, id)
}

// UpdateBooking applies a field patch. A patch that changes nothing returns
// the booking unchanged.
func (s *Service) UpdateBooking(ctx context.Context, id string, p booking.Patch, actor string) (*booking.Booking, error) {
	b, _, err := s.mutate(ctx, id, func(store repository.Store, b *booking.Booking) ([]booking.HistoryEvent, error) {
		ev, err := s.machine.Update(b, p, actor)
		if err != nil || ev == nil {
			return nil, err
		}
		return []booking.HistoryEvent{*ev}, nil
	})
	return b, err
}

// CancelBooking cancels a CONFIRMED or WEATHER_HOLD booking.
func (s *Service) CancelBooking(ctx context.Context, id, actor, reason string) (*booking.Booking, error) {
	b, _, err := s.mutate(ctx, id, func(store repository.Store, b *booking.Booking) ([]booking.HistoryEvent, error) {
		ev, err := s.machine.Cancel(b, actor, reason)
		if err != nil {
			return nil, err
		}
		return []booking.HistoryEvent{ev}, nil
	})
	return b, err
}

// CompleteBooking marks a CONFIRMED booking as flown.
func (s *Service) CompleteBooking(ctx context.Context, id, actor string) (*booking.Booking, error) {
	b, _, err := s.mutate(ctx, id, func(store repository.Store, b *booking.Booking) ([]booking.HistoryEvent, error) {
		ev, err := s.machine.Complete(b, actor)
		if err != nil {
			return nil, err
		}
		return []booking.HistoryEvent{ev}, nil
	})
	return b, err
}

// mutateFunc changes b in place and returns the events to record. Returning
// an error discards every change.
type mutateFunc func(store repository.Store, b *booking.Booking) ([]booking.HistoryEvent, error)

// mutate serializes writers of one booking: it loads a copy, applies fn and
// saves the result with its events under the loaded version.
func (s *Service) mutate(ctx context.Context, id string, fn mutateFunc) (*booking.Booking, []booking.HistoryEvent, error) {
	store, q, err := s.deps()
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	loaded := b.Version
	before := b.Clone()

	events, err := fn(store, b)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 && b.Version == loaded {
		return b, nil, nil
	}

	if err := store.Save(ctx, b, loaded, events...); err != nil {
		return nil, nil, fmt.Errorf("save booking %s: %w", id, err)
	}
	if before.Status != b.Status {
		metrics.RecordStatusTransition(string(before.Status), string(b.Status))
	}
	s.notify(ctx, q, b, events...)
	return b, events, nil
}

// checkFree fails with ErrSlotConflict when another active booking keeps a
// participant of b busy during a flight starting at start.
func (s *Service) checkFree(ctx context.Context, store repository.Store, b *booking.Booking, start time.Time) error {
	slot := model.Interval{Start: start, End: start.Add(s.flight)}
	busy, err := store.Busy(ctx, b.Participants(), slot, s.flight, b.ID)
	if err != nil {
		return err
	}
	for _, id := range b.Participants() {
		if len(busy[id]) > 0 {
			return fmt.Errorf("%w: %s at %s", ErrSlotConflict, id, start.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// notify queues one notification per event. Delivery problems never fail
// the operation that produced the events.
func (s *Service) notify(ctx context.Context, q queue.Queue, b *booking.Booking, events ...booking.HistoryEvent) {
	for _, ev := range events {
		n := model.Notification{
			ID:         ev.ID,
			BookingID:  b.ID,
			Action:     string(ev.Action),
			Recipients: []string{b.StudentID, b.InstructorID},
			Message:    render(b, ev),
			CreatedAt:  ev.Timestamp,
		}
		if err := q.Enqueue(ctx, n); err != nil {
			s.logger.Warn(ctx, "notification dropped",
				logger.String("notificationId", n.ID),
				logger.String("bookingId", b.ID),
				logger.Error(err),
			)
		}
	}
}

func render(b *booking.Booking, ev booking.HistoryEvent) string {
	when := b.ScheduledDate.UTC().Format("Mon Jan 2 15:04 MST")
	switch ev.Action {
	case booking.ActionCreated:
		return fmt.Sprintf("Flight from %s booked for %s", b.DepartureLocation.Name, when)
	case booking.ActionStatusChanged:
		c, _ := ev.Change(booking.FieldStatus)
		if c.New == string(booking.StatusWeatherHold) {
			return fmt.Sprintf("Flight on %s is on weather hold: %s", when, ev.Notes)
		}
		return fmt.Sprintf("Flight on %s is %s again", when, c.New)
	case booking.ActionRescheduled:
		c, _ := ev.Change(booking.FieldScheduledDate)
		return fmt.Sprintf("Flight moved from %s to %s", c.Old, c.New)
	case booking.ActionCancelled:
		if ev.Notes != "" {
			return fmt.Sprintf("Flight on %s cancelled: %s", when, ev.Notes)
		}
		return fmt.Sprintf("Flight on %s cancelled", when)
	case booking.ActionCompleted:
		return fmt.Sprintf("Flight on %s completed", when)
	default:
		return fmt.Sprintf("Flight on %s updated", when)
	}
}
