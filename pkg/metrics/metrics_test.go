package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the scheduler namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "skyguard")
				So(manager.subsystem, ShouldEqual, "scheduler")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.versionConflicts.Inc()

			Convey("Then metrics carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_unit_repository_version_conflicts_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		m := globalManager

		Convey("Safety evaluations are split by level and outcome", func() {
			safe := m.safetyEvaluations.WithLabelValues("STUDENT_PILOT", "safe")
			unsafe := m.safetyEvaluations.WithLabelValues("STUDENT_PILOT", "unsafe")
			beforeSafe, beforeUnsafe := testutil.ToFloat64(safe), testutil.ToFloat64(unsafe)

			RecordSafetyEvaluation("STUDENT_PILOT", true)
			RecordSafetyEvaluation("STUDENT_PILOT", false)
			RecordSafetyEvaluation("STUDENT_PILOT", false)

			So(testutil.ToFloat64(safe)-beforeSafe, ShouldEqual, 1)
			So(testutil.ToFloat64(unsafe)-beforeUnsafe, ShouldEqual, 2)
		})

		Convey("Status transitions are labelled with both ends", func() {
			c := m.statusTransitions.WithLabelValues("CONFIRMED", "WEATHER_HOLD")
			before := testutil.ToFloat64(c)
			RecordStatusTransition("CONFIRMED", "WEATHER_HOLD")
			So(testutil.ToFloat64(c)-before, ShouldEqual, 1)
		})

		Convey("Forecast errors are counted only on failure", func() {
			reqs := m.forecastRequests.WithLabelValues("unit")
			errs := m.forecastErrors.WithLabelValues("unit")
			beforeReqs, beforeErrs := testutil.ToFloat64(reqs), testutil.ToFloat64(errs)

			RecordForecast("unit", 12, nil)
			RecordForecast("unit", 30, errors.New("down"))

			So(testutil.ToFloat64(reqs)-beforeReqs, ShouldEqual, 2)
			So(testutil.ToFloat64(errs)-beforeErrs, ShouldEqual, 1)
		})

		Convey("Gauges hold the last value", func() {
			UpdateActiveBookings("CONFIRMED", 7)
			UpdateQueueSize(3)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)
			So(testutil.ToFloat64(m.activeBookings.WithLabelValues("CONFIRMED")), ShouldEqual, 7)
			So(testutil.ToFloat64(m.queueSize), ShouldEqual, 3)
			So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 100)
			So(testutil.ToFloat64(m.workerCount), ShouldEqual, 4)
		})

		Convey("Reschedule and HTTP recorders do not panic", func() {
			So(func() {
				RecordRescheduleGeneration("ok", 120, 3)
				RecordRescheduleGeneration("forecast_unavailable", 10000, 0)
				RecordRescheduleConfirmation("ok")
				RecordViolation("CEILING_BELOW_MINIMUM")
				RecordWeatherCheck("unsafe")
				RecordHTTPRequest("/check-weather", "POST", 200, 4.2)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.3)
				UpdateQueueUtilization(0.03)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordNotificationDispatched("RESCHEDULED")
				UpdateRepositoryRecords("bookings", 10)
				RecordRepositoryQueryLatency(0.1)
				RecordRepositoryUpdateLatency(0.2)
				RecordVersionConflict()
				RecordErrorByComponent("repository", "not_found")
				RecordErrorByEndpoint("/bookings", "GET", "not_found")
				UpdateSystemMetrics()
			}, ShouldNotPanic)
		})

		Convey("The registry exposes the scheduler metrics", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := map[string]bool{}
			for _, mf := range families {
				names[mf.GetName()] = true
			}
			So(names["skyguard_scheduler_safety_evaluations_total"], ShouldBeTrue)
			So(names["skyguard_scheduler_queue_size"], ShouldBeTrue)
		})
	})
}
