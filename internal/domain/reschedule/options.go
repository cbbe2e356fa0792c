package reschedule

import "time"

// Option configures an Engine.
type Option func(*Engine)

// WithHorizon bounds how far ahead of now slots are searched. It should not
// exceed the weather source's forecast horizon. The default scorer decays
// over the same horizon.
func WithHorizon(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.horizon = d
		}
	}
}

// WithScorer replaces the default lead-time scorer.
func WithScorer(s Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithClock sets the time source used for lead time and past-slot filtering.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithMaxCandidates caps the number of returned candidates.
func WithMaxCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCandidates = n
		}
	}
}

// WithTimeout bounds a whole GenerateOptions call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithConcurrency limits parallel forecast lookups.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithOperatingHours restricts slots to [start, end) local hours.
func WithOperatingHours(start, end int) Option {
	return func(e *Engine) {
		if start >= 0 && end <= 24 && start < end {
			e.operatingStart, e.operatingEnd = start, end
		}
	}
}

// WithLocation sets the time zone operating hours are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}
