package reschedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/booking"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	fixedNow  = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	scheduled = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	kpao      = model.Location{Name: "KPAO", Lat: 37.461, Lon: -122.115}
	kmry      = model.Location{Name: "KMRY", Lat: 36.587, Lon: -121.843}
)

func at(hour int) time.Time {
	return time.Date(2026, 10, 16, hour, 0, 0, 0, time.UTC)
}

func heldBooking() *booking.Booking {
	return &booking.Booking{
		ID:                "bk-1",
		StudentID:         "stu-1",
		InstructorID:      "ins-1",
		AircraftID:        "N172SP",
		ScheduledDate:     scheduled,
		DepartureLocation: kpao,
		Status:            booking.StatusWeatherHold,
		Version:           2,
	}
}

func clearSky(t time.Time) weather.Conditions {
	c, err := weather.NewConditions(weather.Observation{
		VisibilitySM: 10,
		WindSpeedKt:  6,
		TemperatureF: 64,
		Humidity:     50,
		Description:  "Clear",
		Time:         t,
	})
	if err != nil {
		panic(err)
	}
	return c
}

func foggy(t time.Time) weather.Conditions {
	ceiling := 400.0
	c, err := weather.NewConditions(weather.Observation{
		VisibilitySM: 1,
		CeilingFt:    &ceiling,
		WindSpeedKt:  3,
		TemperatureF: 55,
		Humidity:     98,
		Description:  "Fog",
		Time:         t,
	})
	if err != nil {
		panic(err)
	}
	return c
}

// sourceWhere returns clear weather except at the listed unsafe hours.
func sourceWhere(unsafeHours ...int) weather.Source {
	return weather.SourceFunc(func(_ context.Context, _ model.Location, t time.Time) (weather.Forecast, error) {
		for _, h := range unsafeHours {
			if t.Hour() == h {
				return weather.Forecast{Conditions: foggy(t), Certainty: 0.9}, nil
			}
		}
		return weather.Forecast{Conditions: clearSky(t), Certainty: 0.9}, nil
	})
}

func window() reschedule.Window {
	return reschedule.Window{Start: at(8), End: at(14), Step: time.Hour, Duration: 2 * time.Hour}
}

func newEngine(src weather.Source, opts ...reschedule.Option) *reschedule.Engine {
	base := []reschedule.Option{
		reschedule.WithClock(func() time.Time { return fixedNow }),
		reschedule.WithOperatingHours(7, 19),
	}
	return reschedule.NewEngine(safety.NewEvaluator(minima.DefaultPolicy()), src, append(base, opts...)...)
}

func byHour(scores map[int]float64) reschedule.Scorer {
	return reschedule.ScorerFunc(func(s reschedule.Slot) float64 { return scores[s.Start.Hour()] })
}

func hours(cands []reschedule.Candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.DateTime.Hour()
	}
	return out
}

func TestEngine_GenerateOptions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a held booking and a window with three safe free slots", t, func() {
		b := heldBooking()
		// 08:00 is foggy, 09:00 is the current slot; 10, 11 and 12 remain.
		e := newEngine(sourceWhere(8), reschedule.WithScorer(byHour(map[int]float64{10: 0.6, 11: 0.9, 12: 0.75})))

		Convey("Candidates are ranked by confidence with dense priorities", func() {
			cands, err := e.GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{11, 12, 10})
			So(cands[0].Priority, ShouldEqual, 1)
			So(cands[1].Priority, ShouldEqual, 2)
			So(cands[2].Priority, ShouldEqual, 3)
			So(cands[0].Confidence, ShouldEqual, 0.9)
			for _, c := range cands {
				So(c.BookingID, ShouldEqual, "bk-1")
				So(c.Reasoning, ShouldContainSubstring, "student pilot minima")
				So(c.WeatherForecast, ShouldStartWith, "KPAO: Clear")
			}
		})

		Convey("The booking itself is not modified", func() {
			before := b.Clone()
			_, err := e.GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(b, ShouldResemble, before)
		})

		Convey("The result is capped at the configured maximum", func() {
			capped := newEngine(sourceWhere(8),
				reschedule.WithScorer(byHour(map[int]float64{10: 0.6, 11: 0.9, 12: 0.75})),
				reschedule.WithMaxCandidates(2))
			cands, err := capped.GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{11, 12})
		})

		Convey("Busy participants exclude overlapping slots", func() {
			avail := reschedule.Availability{Busy: map[string][]model.Interval{
				"ins-1": {{Start: at(10), End: at(12)}},
			}}
			cands, err := e.GenerateOptions(ctx, b, minima.StudentPilot, window(), avail)
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{12})
		})
	})

	Convey("Given equal confidences", t, func() {
		e := newEngine(sourceWhere(), reschedule.WithScorer(reschedule.ScorerFunc(func(reschedule.Slot) float64 { return 0.8 })))

		Convey("Ties are broken by the earlier time", func() {
			cands, err := e.GenerateOptions(ctx, heldBooking(), minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{8, 10, 11, 12})
		})
	})

	Convey("Given the default lead-time scorer", t, func() {
		e := newEngine(sourceWhere())

		Convey("Nearer slots score at least as high as later ones", func() {
			cands, err := e.GenerateOptions(ctx, heldBooking(), minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{8, 10, 11, 12})
			for i, c := range cands {
				So(c.Confidence, ShouldBeBetweenOrEqual, 0, 1)
				if i > 0 {
					So(c.Confidence, ShouldBeLessThanOrEqualTo, cands[i-1].Confidence)
				}
			}
		})
	})

	Convey("Given weather that is unsafe everywhere", t, func() {
		e := newEngine(sourceWhere(8, 9, 10, 11, 12, 13))

		Convey("An empty, non-nil list is returned", func() {
			cands, err := e.GenerateOptions(ctx, heldBooking(), minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(cands, ShouldNotBeNil)
			So(cands, ShouldBeEmpty)
		})
	})

	Convey("Given an unsafe destination", t, func() {
		b := heldBooking()
		dest := kmry
		b.DestinationLocation = &dest
		src := weather.SourceFunc(func(_ context.Context, loc model.Location, when time.Time) (weather.Forecast, error) {
			if loc.Name == "KMRY" && when.Hour() == 10 {
				return weather.Forecast{Conditions: foggy(when), Certainty: 0.9}, nil
			}
			return weather.Forecast{Conditions: clearSky(when), Certainty: 0.9}, nil
		})

		Convey("Slots unsafe at either end are dropped", func() {
			cands, err := newEngine(src).GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{8, 11, 12})
			So(cands[0].WeatherForecast, ShouldContainSubstring, "KMRY: ")
		})
	})

	Convey("Given a window that started in the past", t, func() {
		e := newEngine(sourceWhere(), reschedule.WithClock(func() time.Time { return at(10).Add(30 * time.Minute) }))

		Convey("Only future hour-aligned slots are offered", func() {
			cands, err := e.GenerateOptions(ctx, heldBooking(), minima.StudentPilot, window(), reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{11, 12})
		})
	})

	Convey("Given a source that only forecasts 22 hours ahead", t, func() {
		limit := fixedNow.Add(22 * time.Hour)
		src := weather.SourceFunc(func(_ context.Context, _ model.Location, t time.Time) (weather.Forecast, error) {
			if t.After(limit) {
				return weather.Forecast{}, weather.ErrSourceUnavailable
			}
			return weather.Forecast{Conditions: clearSky(t), Certainty: 0.9}, nil
		})
		e := newEngine(src, reschedule.WithHorizon(22*time.Hour))

		Convey("A longer window is clamped and in-horizon slots are still offered", func() {
			w := window()
			w.End = at(8).Add(6 * 24 * time.Hour)
			cands, err := e.GenerateOptions(ctx, heldBooking(), minima.StudentPilot, w, reschedule.Availability{})
			So(err, ShouldBeNil)
			So(hours(cands), ShouldResemble, []int{8})
		})

		Convey("A window starting past the horizon is rejected", func() {
			w := reschedule.Window{Start: at(12), End: at(16)}
			cands, err := e.GenerateOptions(ctx, heldBooking(), minima.StudentPilot, w, reschedule.Availability{})
			So(errors.Is(err, reschedule.ErrInvalidWindow), ShouldBeTrue)
			So(cands, ShouldBeNil)
		})

		Convey("Without the bound the same window fails on the unreachable slots", func() {
			w := window()
			w.End = at(8).Add(6 * 24 * time.Hour)
			_, err := newEngine(src).GenerateOptions(ctx, heldBooking(), minima.StudentPilot, w, reschedule.Availability{})
			So(errors.Is(err, reschedule.ErrForecastUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given failures", t, func() {
		b := heldBooking()

		Convey("A booking that is not on hold is rejected", func() {
			b.Status = booking.StatusConfirmed
			cands, err := newEngine(sourceWhere()).GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(errors.Is(err, reschedule.ErrBookingNotOnHold), ShouldBeTrue)
			So(cands, ShouldBeNil)
		})

		Convey("An unknown training level is rejected", func() {
			_, err := newEngine(sourceWhere()).GenerateOptions(ctx, b, minima.TrainingLevel("ASTRONAUT"), window(), reschedule.Availability{})
			So(errors.Is(err, minima.ErrInvalidTrainingLevel), ShouldBeTrue)
		})

		Convey("An inverted window is rejected", func() {
			w := window()
			w.Start, w.End = w.End, w.Start
			_, err := newEngine(sourceWhere()).GenerateOptions(ctx, b, minima.StudentPilot, w, reschedule.Availability{})
			So(errors.Is(err, reschedule.ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("A single forecast error fails the whole generation", func() {
			src := weather.SourceFunc(func(_ context.Context, _ model.Location, t time.Time) (weather.Forecast, error) {
				if t.Hour() == 11 {
					return weather.Forecast{}, weather.ErrSourceUnavailable
				}
				return weather.Forecast{Conditions: clearSky(t), Certainty: 0.9}, nil
			})
			cands, err := newEngine(src).GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(errors.Is(err, reschedule.ErrForecastUnavailable), ShouldBeTrue)
			So(errors.Is(err, weather.ErrSourceUnavailable), ShouldBeTrue)
			So(cands, ShouldBeNil)
		})

		Convey("A slow source hits the timeout", func() {
			src := weather.SourceFunc(func(ctx context.Context, _ model.Location, _ time.Time) (weather.Forecast, error) {
				<-ctx.Done()
				return weather.Forecast{}, ctx.Err()
			})
			e := newEngine(src, reschedule.WithTimeout(20*time.Millisecond))
			cands, err := e.GenerateOptions(ctx, b, minima.StudentPilot, window(), reschedule.Availability{})
			So(errors.Is(err, reschedule.ErrForecastUnavailable), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(cands, ShouldBeNil)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Rank orders by confidence then time", t, func() {
		cands := []reschedule.Candidate{
			{DateTime: at(12), Confidence: 0.5},
			{DateTime: at(10), Confidence: 0.5},
			{DateTime: at(15), Confidence: 0.95},
		}
		reschedule.Rank(cands)
		So(hours(cands), ShouldResemble, []int{15, 10, 12})
		So([]int{cands[0].Priority, cands[1].Priority, cands[2].Priority}, ShouldResemble, []int{1, 2, 3})
	})
}

func TestLeadTimeScorer(t *testing.T) {
	Convey("Given a lead-time scorer", t, func() {
		s := reschedule.LeadTimeScorer{Horizon: 100 * time.Hour, Decay: 0.5}
		slot := func(lead time.Duration, certainty float64) reschedule.Slot {
			return reschedule.Slot{LeadTime: lead, Forecasts: []weather.Forecast{{Certainty: certainty}}}
		}

		Convey("Zero lead keeps the certainty", func() {
			So(s.Score(slot(0, 0.8)), ShouldEqual, 0.8)
		})
		Convey("Lead time discounts linearly", func() {
			So(s.Score(slot(50*time.Hour, 0.8)), ShouldEqual, 0.6)
		})
		Convey("Lead beyond the horizon is capped", func() {
			So(s.Score(slot(500*time.Hour, 0.8)), ShouldEqual, 0.4)
		})
		Convey("The weakest location certainty wins", func() {
			sl := reschedule.Slot{Forecasts: []weather.Forecast{{Certainty: 0.9}, {Certainty: 0.7}}}
			So(s.Score(sl), ShouldEqual, 0.7)
		})
	})
}
