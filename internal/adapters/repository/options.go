package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithSnapshotInterval sets how often status counts are republished.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}

// WithSeed seeds the index priorities, making tree shapes reproducible.
func WithSeed(seed int64) Option {
	return func(s *MemoryStore) {
		s.seed = seed
	}
}
