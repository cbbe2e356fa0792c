package booking

import "errors"

// Sentinel error kinds for booking lifecycle operations.
var (
	ErrInvalidBooking           = errors.New("invalid booking")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrTerminalBookingImmutable = errors.New("booking is cancelled or completed")
)
