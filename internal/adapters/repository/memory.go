package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// Snapshot is an immutable view of booking counts, republished periodically
// so dashboards never take the write lock.
type Snapshot struct {
	ByStatus map[booking.Status]int
	Bookings int
	Pilots   int
	TakenAt  time.Time
}

// MemoryStore is an in-memory Store. Bookings live in a map and a
// schedule index ordered by time; history is append-only per booking.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*booking.Booking
	history  map[string][]booking.HistoryEvent
	pilots   map[string]booking.Pilot
	index    scheduleIndex

	seed             int64
	snapshotInterval time.Duration
	snapshot         atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store with configuration options and starts
// the background snapshot publisher, which stops with ctx or Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		bookings:         make(map[string]*booking.Booking),
		history:          make(map[string][]booking.HistoryEvent),
		pilots:           make(map[string]booking.Pilot),
		seed:             time.Now().UnixNano(),
		snapshotInterval: 5 * time.Second,
		stopChan:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	rng := rand.New(rand.NewSource(s.seed)) //nolint:gosec // tree balancing, not security
	s.index.next = rng.Uint64

	s.publishSnapshot()
	s.startPeriodicSnapshots(ctx)
	return s
}

// Create implements BookingStore.
func (s *MemoryStore) Create(ctx context.Context, b *booking.Booking, events ...booking.HistoryEvent) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; ok {
		return fmt.Errorf("%w: booking %s", ErrAlreadyExists, b.ID)
	}
	c := b.Clone()
	s.bookings[c.ID] = c
	s.index.put(c.ScheduledDate, c.ID)
	s.history[c.ID] = append(s.history[c.ID], events...)
	return nil
}

// Get implements BookingStore.
func (s *MemoryStore) Get(ctx context.Context, id string) (*booking.Booking, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}
	return b.Clone(), nil
}

// Save implements BookingStore.
func (s *MemoryStore) Save(ctx context.Context, b *booking.Booking, expectedVersion int64, events ...booking.HistoryEvent) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.bookings[b.ID]
	if !ok {
		return fmt.Errorf("%w: booking %s", ErrNotFound, b.ID)
	}
	if old.Version != expectedVersion {
		metrics.RecordVersionConflict()
		return fmt.Errorf("%w: booking %s is at version %d, expected %d", ErrVersionConflict, b.ID, old.Version, expectedVersion)
	}

	c := b.Clone()
	if !old.ScheduledDate.Equal(c.ScheduledDate) {
		s.index.remove(old.ScheduledDate, old.ID)
		s.index.put(c.ScheduledDate, c.ID)
	}
	s.bookings[c.ID] = c
	s.history[c.ID] = append(s.history[c.ID], events...)
	return nil
}

// List implements BookingStore.
func (s *MemoryStore) List(ctx context.Context, f Filter) ([]*booking.Booking, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.index.between(f.From, f.To)
	out := make([]*booking.Booking, 0, len(ids))
	for _, id := range ids {
		if b := s.bookings[id]; f.matches(b) {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

// Busy implements BookingStore. Only CONFIRMED and WEATHER_HOLD bookings
// occupy their participants; each occupies [ScheduledDate, ScheduledDate+flight).
func (s *MemoryStore) Busy(ctx context.Context, participants []string, window model.Interval, flight time.Duration, excludeID string) (map[string][]model.Interval, error) {
	defer observeQuery(time.Now())

	wanted := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p != "" {
			wanted[p] = true
		}
	}
	busy := make(map[string][]model.Interval, len(wanted))

	s.mu.RLock()
	defer s.mu.RUnlock()

	// A flight starting up to one duration before the window still reaches into it.
	for _, id := range s.index.between(window.Start.Add(-flight), window.End) {
		b := s.bookings[id]
		if id == excludeID || b.Status.IsTerminal() {
			continue
		}
		span := model.Interval{Start: b.ScheduledDate, End: b.ScheduledDate.Add(flight)}
		if !span.Overlaps(window) {
			continue
		}
		for _, p := range b.Participants() {
			if wanted[p] {
				busy[p] = append(busy[p], span)
			}
		}
	}
	return busy, nil
}

// CountByStatus implements BookingStore.
func (s *MemoryStore) CountByStatus(ctx context.Context) map[booking.Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

func (s *MemoryStore) countLocked() map[booking.Status]int {
	counts := make(map[booking.Status]int, len(booking.Statuses()))
	for _, st := range booking.Statuses() {
		counts[st] = 0
	}
	for _, b := range s.bookings {
		counts[b.Status]++
	}
	return counts
}

// Append implements HistoryStore.
func (s *MemoryStore) Append(ctx context.Context, events ...booking.HistoryEvent) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if _, ok := s.bookings[ev.FlightID]; !ok {
			return fmt.Errorf("%w: booking %s", ErrNotFound, ev.FlightID)
		}
	}
	for _, ev := range events {
		s.history[ev.FlightID] = append(s.history[ev.FlightID], ev)
	}
	return nil
}

// History implements HistoryStore.
func (s *MemoryStore) History(ctx context.Context, bookingID string) ([]booking.HistoryEvent, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.bookings[bookingID]; !ok {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}
	events := s.history[bookingID]
	out := make([]booking.HistoryEvent, len(events))
	copy(out, events)
	return out, nil
}

// PutPilot implements PilotStore. An existing entry is replaced.
func (s *MemoryStore) PutPilot(ctx context.Context, p booking.Pilot) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.pilots[p.ID] = p
	s.mu.Unlock()
	return nil
}

// GetPilot implements PilotStore.
func (s *MemoryStore) GetPilot(ctx context.Context, id string) (booking.Pilot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pilots[id]
	if !ok {
		return booking.Pilot{}, fmt.Errorf("%w: pilot %s", ErrNotFound, id)
	}
	return p, nil
}

// Snapshot returns the most recently published counts.
func (s *MemoryStore) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

// Close stops the snapshot publisher.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startPeriodicSnapshots publishes snapshots at the configured interval.
func (s *MemoryStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

// publishSnapshot rebuilds the snapshot and refreshes the record gauges.
func (s *MemoryStore) publishSnapshot() {
	s.mu.RLock()
	snap := &Snapshot{
		ByStatus: s.countLocked(),
		Bookings: s.index.len(),
		Pilots:   len(s.pilots),
		TakenAt:  time.Now(),
	}
	s.mu.RUnlock()

	s.snapshot.Store(snap)
	metrics.UpdateRepositoryRecords("bookings", snap.Bookings)
	metrics.UpdateRepositoryRecords("pilots", snap.Pilots)
	for st, n := range snap.ByStatus {
		metrics.UpdateActiveBookings(string(st), n)
	}
}

func observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}
