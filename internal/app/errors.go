package service

import "errors"

// Sentinel kinds for service operations.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrSlotConflict = errors.New("participant is already booked in that slot")
)
