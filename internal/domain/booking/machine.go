package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{ //nolint:gochecknoglobals // static transition table
	StatusConfirmed:   {StatusWeatherHold, StatusCancelled, StatusCompleted},
	StatusWeatherHold: {StatusConfirmed, StatusCancelled},
	StatusCancelled:   nil,
	StatusCompleted:   nil,
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Patch holds optional field updates for Update. Nil fields are left as is.
type Patch struct {
	InstructorID *string
	AircraftID   *string
	FlightType   *string
	Notes        *string
}

// StateMachine mutates bookings in place and returns the history event for
// each change. It does not persist anything; callers store both the booking
// and the event, and must serialize calls per booking.
type StateMachine struct {
	now         func() time.Time
	newID       func() string
	autoRelease bool
}

// NewStateMachine creates a StateMachine with configuration options.
func NewStateMachine(opts ...Option) *StateMachine {
	m := &StateMachine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create initialises a new booking as CONFIRMED and returns its CREATED event.
func (m *StateMachine) Create(b *Booking, actor string) (HistoryEvent, error) {
	if err := b.Validate(); err != nil {
		return HistoryEvent{}, err
	}
	now := m.now()
	if b.ID == "" {
		b.ID = m.newID()
	}
	b.Status = StatusConfirmed
	b.LatestVerdict = nil
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now

	return m.event(b, ActionCreated, actor, "", now,
		Change{Field: FieldStatus, New: string(StatusConfirmed)},
		Change{Field: FieldScheduledDate, New: formatTime(b.ScheduledDate)},
	), nil
}

// Update applies p. Terminal bookings fail with ErrTerminalBookingImmutable.
// A patch that changes nothing returns a nil event.
func (m *StateMachine) Update(b *Booking, p Patch, actor string) (*HistoryEvent, error) {
	if b.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrTerminalBookingImmutable, b.ID, b.Status)
	}

	var changes []Change
	apply := func(field string, dst *string, val *string, required bool) error {
		if val == nil || *val == *dst {
			return nil
		}
		if required && strings.TrimSpace(*val) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidBooking, field)
		}
		changes = append(changes, Change{Field: field, Old: *dst, New: *val})
		return nil
	}
	if err := apply(FieldInstructorID, &b.InstructorID, p.InstructorID, true); err != nil {
		return nil, err
	}
	if err := apply(FieldAircraftID, &b.AircraftID, p.AircraftID, true); err != nil {
		return nil, err
	}
	if err := apply(FieldFlightType, &b.FlightType, p.FlightType, false); err != nil {
		return nil, err
	}
	if err := apply(FieldNotes, &b.Notes, p.Notes, false); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}

	// Validation passed for every field; commit.
	for _, c := range changes {
		switch c.Field {
		case FieldInstructorID:
			b.InstructorID = c.New
		case FieldAircraftID:
			b.AircraftID = c.New
		case FieldFlightType:
			b.FlightType = c.New
		case FieldNotes:
			b.Notes = c.New
		}
	}
	ev := m.commit(b, ActionUpdated, actor, "", changes...)
	return &ev, nil
}

// ApplyWeatherVerdict reacts to a weather check.
//
// Terminal bookings are left untouched and no event is produced; passive
// polling may re-check any booking. For other bookings the verdict becomes
// LatestVerdict, then:
//   - unsafe and CONFIRMED: moves to WEATHER_HOLD (STATUS_CHANGED, notes carry
//     the verdict reason);
//   - safe and WEATHER_HOLD: moves back to CONFIRMED only when auto release
//     is enabled, otherwise the booking waits for a confirmed reschedule;
//   - anything else: no transition and a nil event. A verdict that differs
//     from the stored one still bumps Version so the refresh is guarded by
//     the store's version check.
func (m *StateMachine) ApplyWeatherVerdict(b *Booking, v safety.Verdict, actor string) (*HistoryEvent, error) {
	if b.Status.IsTerminal() {
		return nil, nil
	}

	refreshed := !sameVerdict(b.LatestVerdict, v)
	verdict := v
	b.LatestVerdict = &verdict

	var to Status
	switch {
	case !v.Safe && b.Status == StatusConfirmed:
		to = StatusWeatherHold
	case v.Safe && b.Status == StatusWeatherHold && m.autoRelease:
		to = StatusConfirmed
	default:
		if refreshed {
			b.Version++
			b.UpdatedAt = m.now()
		}
		return nil, nil
	}

	ev := m.commit(b, ActionStatusChanged, actor, v.Reason,
		Change{Field: FieldStatus, Old: string(b.Status), New: string(to)},
	)
	b.Status = to
	return &ev, nil
}

// Cancel moves CONFIRMED or WEATHER_HOLD to CANCELLED.
func (m *StateMachine) Cancel(b *Booking, actor, reason string) (HistoryEvent, error) {
	if err := m.check(b, StatusCancelled); err != nil {
		return HistoryEvent{}, err
	}
	ev := m.commit(b, ActionCancelled, actor, reason,
		Change{Field: FieldStatus, Old: string(b.Status), New: string(StatusCancelled)},
	)
	b.Status = StatusCancelled
	return ev, nil
}

// Complete moves CONFIRMED to COMPLETED.
func (m *StateMachine) Complete(b *Booking, actor string) (HistoryEvent, error) {
	if err := m.check(b, StatusCompleted); err != nil {
		return HistoryEvent{}, err
	}
	ev := m.commit(b, ActionCompleted, actor, "",
		Change{Field: FieldStatus, Old: string(b.Status), New: string(StatusCompleted)},
	)
	b.Status = StatusCompleted
	return ev, nil
}

// Reschedule moves a WEATHER_HOLD booking to newTime and back to CONFIRMED.
// One RESCHEDULED event records both the date and the status change.
func (m *StateMachine) Reschedule(b *Booking, newTime time.Time, actor, reasoning string) (HistoryEvent, error) {
	if b.Status != StatusWeatherHold {
		return HistoryEvent{}, fmt.Errorf("%w: cannot reschedule booking %s from %s", ErrInvalidTransition, b.ID, b.Status)
	}
	if newTime.IsZero() {
		return HistoryEvent{}, fmt.Errorf("%w: missing new scheduled date", ErrInvalidBooking)
	}
	if err := checkSchedule(newTime); err != nil {
		return HistoryEvent{}, err
	}
	ev := m.commit(b, ActionRescheduled, actor, reasoning,
		Change{Field: FieldScheduledDate, Old: formatTime(b.ScheduledDate), New: formatTime(newTime)},
		Change{Field: FieldStatus, Old: string(b.Status), New: string(StatusConfirmed)},
	)
	b.ScheduledDate = newTime
	b.Status = StatusConfirmed
	// The verdict belonged to the old slot.
	b.LatestVerdict = nil
	return ev, nil
}

func sameVerdict(prev *safety.Verdict, v safety.Verdict) bool {
	if prev == nil {
		return false
	}
	return prev.Safe == v.Safe &&
		prev.Reason == v.Reason &&
		prev.EvaluatedAt.Equal(v.EvaluatedAt)
}

func (m *StateMachine) check(b *Booking, to Status) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s for booking %s", ErrInvalidTransition, b.Status, to, b.ID)
	}
	return nil
}

// commit stamps the booking and builds the event.
func (m *StateMachine) commit(b *Booking, action Action, actor, notes string, changes ...Change) HistoryEvent {
	now := m.now()
	b.Version++
	b.UpdatedAt = now
	return m.event(b, action, actor, notes, now, changes...)
}

func (m *StateMachine) event(b *Booking, action Action, actor, notes string, at time.Time, changes ...Change) HistoryEvent {
	if actor == "" {
		actor = SystemActor
	}
	return HistoryEvent{
		ID:        m.newID(),
		FlightID:  b.ID,
		Action:    action,
		ChangedBy: actor,
		Changes:   changes,
		Notes:     notes,
		Timestamp: at,
	}
}

// SystemActor is recorded when a change has no human author.
const SystemActor = "system"
