package reschedule

import "errors"

// Sentinel error kinds for reschedule generation and confirmation.
var (
	ErrBookingNotOnHold      = errors.New("booking is not on weather hold")
	ErrCandidateNoLongerSafe = errors.New("candidate is no longer safe")
	ErrCandidateMismatch     = errors.New("candidate does not belong to booking")
	// ErrForecastUnavailable is transient; callers may retry with backoff.
	ErrForecastUnavailable = errors.New("forecast unavailable")
	ErrInvalidWindow       = errors.New("invalid forecast window")
)
