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

func newConfirmer(src weather.Source) *reschedule.Confirmer {
	clock := func() time.Time { return fixedNow }
	return reschedule.NewConfirmer(
		safety.NewEvaluator(minima.DefaultPolicy()),
		src,
		booking.NewStateMachine(
			booking.WithClock(clock),
			booking.WithIDGenerator(func() string { return "ev-1" }),
		),
		reschedule.WithConfirmClock(clock),
	)
}

func TestConfirmer_Confirm(t *testing.T) {
	ctx := context.Background()

	Convey("Given a held booking and a candidate for 11:00", t, func() {
		b := heldBooking()
		cand := reschedule.Candidate{
			BookingID:  b.ID,
			DateTime:   at(11),
			Reasoning:  "clear skies forecast",
			Priority:   1,
			Confidence: 0.9,
		}

		Convey("When the slot is still safe", func() {
			ev, err := newConfirmer(sourceWhere()).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")

			Convey("The booking moves to the new time and is confirmed", func() {
				So(err, ShouldBeNil)
				So(b.Status, ShouldEqual, booking.StatusConfirmed)
				So(b.ScheduledDate, ShouldEqual, at(11))
				So(b.Version, ShouldEqual, 3)
				So(b.LatestVerdict, ShouldNotBeNil)
				So(b.LatestVerdict.Safe, ShouldBeTrue)
			})

			Convey("A single RESCHEDULED event records both changes", func() {
				So(ev.Action, ShouldEqual, booking.ActionRescheduled)
				So(ev.ChangedBy, ShouldEqual, "dispatcher")
				So(ev.Notes, ShouldEqual, "clear skies forecast")
				status, ok := ev.Change(booking.FieldStatus)
				So(ok, ShouldBeTrue)
				So(status.Old, ShouldEqual, "WEATHER_HOLD")
				So(status.New, ShouldEqual, "CONFIRMED")
				date, ok := ev.Change(booking.FieldScheduledDate)
				So(ok, ShouldBeTrue)
				So(date.Old, ShouldEqual, "2026-10-16T09:00:00Z")
				So(date.New, ShouldEqual, "2026-10-16T11:00:00Z")
			})
		})

		Convey("When the weather has turned", func() {
			before := b.Clone()
			_, err := newConfirmer(sourceWhere(11)).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")

			Convey("The confirmation fails and the booking is untouched", func() {
				So(errors.Is(err, reschedule.ErrCandidateNoLongerSafe), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Visibility")
				So(b, ShouldResemble, before)
			})
		})

		Convey("When the destination has turned", func() {
			dest := kmry
			b.DestinationLocation = &dest
			src := weather.SourceFunc(func(_ context.Context, loc model.Location, when time.Time) (weather.Forecast, error) {
				if loc.Name == "KMRY" {
					return weather.Forecast{Conditions: foggy(when), Certainty: 0.9}, nil
				}
				return weather.Forecast{Conditions: clearSky(when), Certainty: 0.9}, nil
			})
			_, err := newConfirmer(src).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")
			So(errors.Is(err, reschedule.ErrCandidateNoLongerSafe), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "KMRY: ")
			So(b.Status, ShouldEqual, booking.StatusWeatherHold)
		})

		Convey("When the forecast cannot be fetched", func() {
			src := weather.SourceFunc(func(context.Context, model.Location, time.Time) (weather.Forecast, error) {
				return weather.Forecast{}, weather.ErrSourceUnavailable
			})
			_, err := newConfirmer(src).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")
			So(errors.Is(err, reschedule.ErrForecastUnavailable), ShouldBeTrue)
			So(b.Status, ShouldEqual, booking.StatusWeatherHold)
			So(b.ScheduledDate, ShouldEqual, scheduled)
		})

		Convey("When the candidate belongs to another booking", func() {
			cand.BookingID = "bk-2"
			_, err := newConfirmer(sourceWhere()).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")
			So(errors.Is(err, reschedule.ErrCandidateMismatch), ShouldBeTrue)
		})

		Convey("When the booking is no longer on hold", func() {
			b.Status = booking.StatusCancelled
			_, err := newConfirmer(sourceWhere()).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")
			So(errors.Is(err, reschedule.ErrBookingNotOnHold), ShouldBeTrue)
		})

		Convey("When the candidate time has passed", func() {
			cand.DateTime = fixedNow.Add(-time.Hour)
			_, err := newConfirmer(sourceWhere()).Confirm(ctx, b, minima.StudentPilot, cand, "dispatcher")
			So(errors.Is(err, reschedule.ErrCandidateNoLongerSafe), ShouldBeTrue)
		})
	})
}
