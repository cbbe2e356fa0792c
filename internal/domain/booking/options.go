package booking

import "time"

// Option applies a configuration option to the StateMachine.
type Option func(*StateMachine)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *StateMachine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator sets the generator for booking and event ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *StateMachine) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// WithAutoRelease lets a safe verdict move a WEATHER_HOLD booking back to
// CONFIRMED. Disabled by default: held bookings are released only by a
// confirmed reschedule.
func WithAutoRelease(enabled bool) Option {
	return func(m *StateMachine) {
		m.autoRelease = enabled
	}
}
