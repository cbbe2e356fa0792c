package weather_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func TestNewConditions(t *testing.T) {
	at := time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)

	Convey("Given a valid observation", t, func() {
		obs := weather.Observation{
			VisibilitySM:  10,
			CeilingFt:     ptr(4500.0),
			WindSpeedKt:   8,
			WindDirection: ptr(270),
			TemperatureF:  68,
			Humidity:      45,
			CloudCover:    ptr(30.0),
			Description:   " Few clouds ",
			Time:          at,
		}

		c, err := weather.NewConditions(obs)

		Convey("Then it should build the snapshot", func() {
			So(err, ShouldBeNil)
			So(c.VisibilitySM(), ShouldEqual, 10)
			So(c.Ceiling().Limited(), ShouldBeTrue)
			ft, ok := c.Ceiling().Feet()
			So(ok, ShouldBeTrue)
			So(ft, ShouldEqual, 4500)
			dir, ok := c.WindDirection()
			So(ok, ShouldBeTrue)
			So(dir, ShouldEqual, 270)
			So(c.Description(), ShouldEqual, "Few clouds")
			So(c.Time(), ShouldEqual, at)
		})

		Convey("And mutating the observation afterwards does not change it", func() {
			*obs.CeilingFt = 200
			ft, _ := c.Ceiling().Feet()
			So(ft, ShouldEqual, 4500)
		})

		Convey("And the summary mentions every value", func() {
			s := c.Summary()
			So(s, ShouldContainSubstring, "Few clouds")
			So(s, ShouldContainSubstring, "visibility 10.0 SM")
			So(s, ShouldContainSubstring, "ceiling 4500 ft")
			So(s, ShouldContainSubstring, "270° at 8 kt")
			So(s, ShouldContainSubstring, "cloud cover 30%")
		})
	})

	Convey("Given an observation without a ceiling", t, func() {
		c, err := weather.NewConditions(weather.Observation{VisibilitySM: 6, Humidity: 50, Time: at})

		Convey("Then the ceiling is unlimited rather than unknown", func() {
			So(err, ShouldBeNil)
			So(c.Ceiling().Limited(), ShouldBeFalse)
			So(c.Ceiling().Below(100_000), ShouldBeFalse)
			So(c.Summary(), ShouldContainSubstring, "ceiling unlimited")
		})
	})

	Convey("Given invalid observations", t, func() {
		cases := map[string]weather.Observation{
			"negative visibility": {VisibilitySM: -1, Time: at},
			"negative wind":       {WindSpeedKt: -3, Time: at},
			"humidity over 100":   {Humidity: 120, Time: at},
			"wind direction 360":  {WindDirection: ptr(360), Time: at},
			"negative ceiling":    {CeilingFt: ptr(-10.0), Time: at},
			"cloud cover 101":     {CloudCover: ptr(101.0), Time: at},
			"missing timestamp":   {VisibilitySM: 5},
		}
		for name, obs := range cases {
			_, err := weather.NewConditions(obs)
			Convey("Then "+name+" should be rejected", func() {
				So(errors.Is(err, weather.ErrInvalidConditions), ShouldBeTrue)
			})
		}
	})
}
