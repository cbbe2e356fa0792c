package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestLocation_Validate(t *testing.T) {
	convey.Convey("Given a location", t, func() {
		convey.Convey("When all fields are valid", func() {
			loc := model.Location{Name: "KPAO", Lat: 37.461, Lon: -122.115}

			convey.Convey("Then validation should pass", func() {
				convey.So(loc.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the name is blank", func() {
			loc := model.Location{Name: "  ", Lat: 1, Lon: 1}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(loc.Validate(), model.ErrInvalidLocation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the latitude is out of range", func() {
			loc := model.Location{Name: "X", Lat: 91}

			convey.Convey("Then validation should fail", func() {
				err := loc.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "latitude")
			})
		})
	})
}

func TestInterval(t *testing.T) {
	convey.Convey("Given two intervals", t, func() {
		base := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
		a := model.Interval{Start: base, End: base.Add(2 * time.Hour)}

		convey.Convey("Then touching intervals do not overlap", func() {
			b := model.Interval{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour)}
			convey.So(a.Overlaps(b), convey.ShouldBeFalse)
		})

		convey.Convey("Then nested intervals overlap", func() {
			b := model.Interval{Start: base.Add(30 * time.Minute), End: base.Add(time.Hour)}
			convey.So(a.Overlaps(b), convey.ShouldBeTrue)
			convey.So(b.Overlaps(a), convey.ShouldBeTrue)
		})

		convey.Convey("Then the end instant is excluded", func() {
			convey.So(a.Contains(base), convey.ShouldBeTrue)
			convey.So(a.Contains(base.Add(2*time.Hour)), convey.ShouldBeFalse)
		})
	})
}
