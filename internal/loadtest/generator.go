package loadtest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jinzhu/now"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
)

// Lesson shape: four slots a day, three hours apart.
const (
	firstSlotHour  = 7
	slotsPerDay    = 4
	slotSpacing    = 3 * time.Hour
	crossCountryPc = 20
)

var levels = []string{"STUDENT_PILOT", "PRIVATE_PILOT", "INSTRUMENT_RATED"}

var airports = []Location{
	{Name: "KPAO", Lat: 37.461, Lon: -122.115},
	{Name: "KSQL", Lat: 37.512, Lon: -122.250},
	{Name: "KHWD", Lat: 37.659, Lon: -122.122},
	{Name: "KLVK", Lat: 37.693, Lon: -121.820},
	{Name: "KSJC", Lat: 37.363, Lon: -121.929},
	{Name: "KMRY", Lat: 36.587, Lon: -121.843},
}

// generatePlan builds pilots and bookings. Bookings are laid out so that
// each instructor flies at most one lesson per slot; students and aircraft
// may still collide, which the server reports as conflicts.
func generatePlan(ctx context.Context, config *Config, start time.Time) Plan {
	rng := rand.New(rand.NewSource(config.Seed)) //nolint:gosec // reproducible plans

	plan := Plan{Pilots: make([]Pilot, config.Pilots)}
	for i := range plan.Pilots {
		plan.Pilots[i] = Pilot{
			ID:            fmt.Sprintf("stu-%04d", i),
			Name:          fmt.Sprintf("Student %d", i),
			TrainingLevel: levels[rng.Intn(len(levels))],
		}
	}

	day := now.With(start.UTC()).BeginningOfDay().AddDate(0, 0, 1)
	slots := config.Days * slotsPerDay
	for i := 0; i < config.Bookings; i++ {
		slot := (i / config.Instructors) % slots
		at := day.AddDate(0, 0, slot/slotsPerDay).
			Add(time.Duration(firstSlotHour)*time.Hour + time.Duration(slot%slotsPerDay)*slotSpacing)

		dep := airports[rng.Intn(len(airports))]
		req := BookingRequest{
			StudentID:         plan.Pilots[rng.Intn(len(plan.Pilots))].ID,
			InstructorID:      fmt.Sprintf("ins-%03d", i%config.Instructors),
			AircraftID:        fmt.Sprintf("N%03dSG", rng.Intn(config.Instructors*2)),
			ScheduledDate:     at,
			DepartureLocation: dep,
			FlightType:        "local",
			Actor:             "loadtest",
		}
		if rng.Intn(100) < crossCountryPc {
			dst := airports[rng.Intn(len(airports))]
			if dst.Name != dep.Name {
				req.DestinationLocation = &dst
				req.FlightType = "cross_country"
			}
		}
		plan.Bookings = append(plan.Bookings, req)
	}

	logger.Get().Info(ctx, "plan generated",
		logger.Int("pilots", len(plan.Pilots)),
		logger.Int("bookings", len(plan.Bookings)),
		logger.Time("firstDay", day))
	return plan
}
