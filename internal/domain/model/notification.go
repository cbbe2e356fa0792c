package model

import "time"

// Notification is a user-facing message derived from a booking history event.
// Delivery is handled outside the scheduling core.
type Notification struct {
	ID         string    // history event id, used for idempotent delivery
	BookingID  string    // booking the event belongs to
	Action     string    // history action, e.g. STATUS_CHANGED
	Recipients []string  // student and instructor ids
	Message    string    // rendered summary
	CreatedAt  time.Time // when the underlying event happened
}
