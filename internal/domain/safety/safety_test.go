package safety_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/safety"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

var sampleTime = time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)

func conditions(obs weather.Observation) weather.Conditions {
	if obs.Time.IsZero() {
		obs.Time = sampleTime
	}
	c, err := weather.NewConditions(obs)
	if err != nil {
		panic(err)
	}
	return c
}

func feet(f float64) *float64 { return &f }

// trainingPolicy uses the round numbers flight schools quote to students.
func trainingPolicy() *minima.Policy {
	table := minima.DefaultTable()
	table[minima.StudentPilot] = minima.Thresholds{
		MinVisibilitySM: 3, MinCeilingFt: 1000, MaxWindKt: 15,
		ThunderstormsDisqualify: true, IcingDisqualify: true,
	}
	p, err := minima.NewPolicy(table)
	if err != nil {
		panic(err)
	}
	return p
}

func TestEvaluator_Evaluate(t *testing.T) {
	Convey("Given an evaluator with student minima of 3 SM and 1000 ft", t, func() {
		ev := safety.NewEvaluator(trainingPolicy())

		Convey("When visibility is 2 SM, ceiling 800 ft and wind 10 kt", func() {
			c := conditions(weather.Observation{VisibilitySM: 2, CeilingFt: feet(800), WindSpeedKt: 10, Humidity: 80})
			v, err := ev.Evaluate(c, minima.StudentPilot)

			Convey("Then both soft violations are listed in order", func() {
				So(err, ShouldBeNil)
				So(v.Safe, ShouldBeFalse)
				So(v.Violations, ShouldResemble, []safety.Violation{
					safety.VisibilityBelowMinimum,
					safety.CeilingBelowMinimum,
				})
				So(v.Reason, ShouldContainSubstring, "Visibility 2.0 SM")
				So(v.Reason, ShouldContainSubstring, "; Ceiling 800 ft")
				So(v.Level, ShouldEqual, minima.StudentPilot)
				So(v.EvaluatedAt, ShouldEqual, sampleTime)
			})
		})

		Convey("When every soft threshold is violated", func() {
			c := conditions(weather.Observation{VisibilitySM: 1, CeilingFt: feet(300), WindSpeedKt: 30})
			v, err := ev.Evaluate(c, minima.StudentPilot)

			Convey("Then all three are accumulated", func() {
				So(err, ShouldBeNil)
				So(v.Violations, ShouldHaveLength, 3)
				So(v.Has(safety.WindExceedsMaximum), ShouldBeTrue)
			})
		})

		Convey("When thunderstorms are reported for a private pilot in otherwise perfect weather", func() {
			c := conditions(weather.Observation{VisibilitySM: 10, WindSpeedKt: 2, Thunderstorms: true})
			v, err := ev.Evaluate(c, minima.PrivatePilot)

			Convey("Then the verdict is unsafe with the thunderstorm violation", func() {
				So(err, ShouldBeNil)
				So(v.Safe, ShouldBeFalse)
				So(v.Has(safety.ThunderstormsPresent), ShouldBeTrue)
			})
		})

		Convey("When thunderstorms accompany low visibility", func() {
			c := conditions(weather.Observation{VisibilitySM: 1, Thunderstorms: true})
			v, _ := ev.Evaluate(c, minima.StudentPilot)

			Convey("Then the hard flag short-circuits soft checks", func() {
				So(v.Violations, ShouldResemble, []safety.Violation{safety.ThunderstormsPresent})
				So(v.Reason, ShouldStartWith, "Thunderstorms reported")
			})
		})

		Convey("When icing is reported for an instrument-rated pilot", func() {
			c := conditions(weather.Observation{VisibilitySM: 10, Icing: true, Thunderstorms: true})
			v, _ := ev.Evaluate(c, minima.InstrumentRated)

			Convey("Then icing grounds the flight", func() {
				So(v.Safe, ShouldBeFalse)
				So(v.Violations, ShouldResemble, []safety.Violation{safety.IcingPresent})
			})
		})

		Convey("When the ceiling is unlimited and visibility good", func() {
			c := conditions(weather.Observation{VisibilitySM: 10, WindSpeedKt: 5})
			v, err := ev.Evaluate(c, minima.StudentPilot)

			Convey("Then the verdict is safe with an explanatory reason", func() {
				So(err, ShouldBeNil)
				So(v.Safe, ShouldBeTrue)
				So(v.Violations, ShouldBeEmpty)
				So(v.Reason, ShouldEqual, "Conditions are within student pilot minima")
			})
		})

		Convey("When values sit exactly on the minima", func() {
			c := conditions(weather.Observation{VisibilitySM: 3, CeilingFt: feet(1000), WindSpeedKt: 15})
			v, _ := ev.Evaluate(c, minima.StudentPilot)

			Convey("Then the flight is allowed", func() {
				So(v.Safe, ShouldBeTrue)
			})
		})

		Convey("When the level is unknown", func() {
			c := conditions(weather.Observation{VisibilitySM: 10})
			_, err := ev.Evaluate(c, "SPACE_CADET")

			Convey("Then it fails with ErrInvalidTrainingLevel", func() {
				So(errors.Is(err, minima.ErrInvalidTrainingLevel), ShouldBeTrue)
			})
		})

		Convey("When the same inputs are evaluated repeatedly", func() {
			c := conditions(weather.Observation{VisibilitySM: 2.5, CeilingFt: feet(900), WindSpeedKt: 18})
			first, _ := ev.Evaluate(c, minima.StudentPilot)

			Convey("Then every verdict is identical", func() {
				for i := 0; i < 50; i++ {
					again, err := ev.Evaluate(c, minima.StudentPilot)
					So(err, ShouldBeNil)
					So(again, ShouldResemble, first)
				}
			})
		})
	})
}

func TestCombine(t *testing.T) {
	Convey("Given departure and destination verdicts", t, func() {
		ev := safety.NewEvaluator(minima.DefaultPolicy())
		good, _ := ev.Evaluate(conditions(weather.Observation{VisibilitySM: 10}), minima.PrivatePilot)
		windy, _ := ev.Evaluate(conditions(weather.Observation{VisibilitySM: 10, WindSpeedKt: 35}), minima.PrivatePilot)
		low, _ := ev.Evaluate(conditions(weather.Observation{VisibilitySM: 1, WindSpeedKt: 30}), minima.PrivatePilot)

		Convey("When both are safe", func() {
			v := safety.Combine([]string{"KPAO", "KMRY"}, []safety.Verdict{good, good})
			So(v.Safe, ShouldBeTrue)
			So(v.Violations, ShouldBeEmpty)
		})

		Convey("When the destination is unsafe", func() {
			v := safety.Combine([]string{"KPAO", "KMRY"}, []safety.Verdict{good, windy})
			So(v.Safe, ShouldBeFalse)
			So(v.Violations, ShouldResemble, []safety.Violation{safety.WindExceedsMaximum})
			So(v.Reason, ShouldStartWith, "KMRY: ")
		})

		Convey("When both are unsafe with overlapping codes", func() {
			v := safety.Combine([]string{"KPAO", "KMRY"}, []safety.Verdict{windy, low})
			So(v.Violations, ShouldResemble, []safety.Violation{
				safety.WindExceedsMaximum,
				safety.VisibilityBelowMinimum,
			})
		})

		Convey("When there is a single leg", func() {
			v := safety.Combine([]string{"KPAO"}, []safety.Verdict{windy})
			So(v, ShouldResemble, windy)
		})
	})
}
