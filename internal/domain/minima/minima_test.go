package minima_test

import (
	"errors"
	"testing"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultPolicy(t *testing.T) {
	Convey("Given the default policy", t, func() {
		p := minima.DefaultPolicy()

		Convey("Then minima loosen as training level increases", func() {
			levels := minima.Levels()
			for i := 1; i < len(levels); i++ {
				lower, err := p.Thresholds(levels[i-1])
				So(err, ShouldBeNil)
				higher, err := p.Thresholds(levels[i])
				So(err, ShouldBeNil)

				So(higher.MinVisibilitySM, ShouldBeLessThanOrEqualTo, lower.MinVisibilitySM)
				So(higher.MinCeilingFt, ShouldBeLessThanOrEqualTo, lower.MinCeilingFt)
				So(higher.MaxWindKt, ShouldBeGreaterThanOrEqualTo, lower.MaxWindKt)
			}
		})

		Convey("Then icing disqualifies every level", func() {
			for _, lvl := range minima.Levels() {
				th, err := p.Thresholds(lvl)
				So(err, ShouldBeNil)
				So(th.IcingDisqualify, ShouldBeTrue)
			}
		})

		Convey("When asking for an unknown level", func() {
			_, err := p.Thresholds("AIRLINE_TRANSPORT")

			Convey("Then it should fail with ErrInvalidTrainingLevel", func() {
				So(errors.Is(err, minima.ErrInvalidTrainingLevel), ShouldBeTrue)
			})
		})
	})
}

func TestNewPolicy(t *testing.T) {
	Convey("Given a custom minima table", t, func() {
		table := minima.DefaultTable()

		Convey("When the instrument visibility minimum exceeds private", func() {
			th := table[minima.InstrumentRated]
			th.MinVisibilitySM = 4
			table[minima.InstrumentRated] = th

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "visibility")
			})
		})

		Convey("When the private wind maximum is below student", func() {
			th := table[minima.PrivatePilot]
			th.MaxWindKt = 10
			table[minima.PrivatePilot] = th

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "wind")
			})
		})

		Convey("When a level is missing", func() {
			delete(table, minima.PrivatePilot)

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When icing is allowed for a level", func() {
			th := table[minima.InstrumentRated]
			th.IcingDisqualify = false
			table[minima.InstrumentRated] = th

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When thunderstorms are allowed for student pilots", func() {
			th := table[minima.StudentPilot]
			th.ThunderstormsDisqualify = false
			table[minima.StudentPilot] = th

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When thunderstorms are allowed for private pilots", func() {
			th := table[minima.PrivatePilot]
			th.ThunderstormsDisqualify = false
			table[minima.PrivatePilot] = th

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "thunderstorms must disqualify PRIVATE_PILOT")
			})
		})

		Convey("When thunderstorms are allowed for instrument pilots", func() {
			th := table[minima.InstrumentRated]
			th.ThunderstormsDisqualify = false
			table[minima.InstrumentRated] = th

			_, err := minima.NewPolicy(table)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, minima.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When thresholds are equal across levels", func() {
			same := table[minima.StudentPilot]
			table[minima.PrivatePilot] = same
			table[minima.InstrumentRated] = same

			p, err := minima.NewPolicy(table)

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(p, ShouldNotBeNil)
			})
		})
	})
}

func TestParseTrainingLevel(t *testing.T) {
	Convey("Given training level strings", t, func() {
		lvl, err := minima.ParseTrainingLevel(" private_pilot ")
		So(err, ShouldBeNil)
		So(lvl, ShouldEqual, minima.PrivatePilot)
		So(lvl.Label(), ShouldEqual, "private pilot")

		_, err = minima.ParseTrainingLevel("glider")
		So(errors.Is(err, minima.ErrInvalidTrainingLevel), ShouldBeTrue)
	})
}
