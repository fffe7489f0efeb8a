package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("golf"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithConstLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then collectors are registered under the namespace", func() {
			m.roundsSubmitted.Inc()
			families, err := registry.Gather()
			So(err, ShouldBeNil)

			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["test_golf_rounds_submitted_total"], ShouldBeTrue)
		})

		Convey("Then counters start at zero and increment", func() {
			So(testutil.ToFloat64(m.roundSubmitErrors), ShouldEqual, 0)
			m.roundSubmitErrors.Inc()
			So(testutil.ToFloat64(m.roundSubmitErrors), ShouldEqual, 1)
		})
	})

	Convey("Given two managers on the same registry", t, func() {
		registry := prometheus.NewRegistry()
		NewManager(WithPrometheusRegistry(registry))

		Convey("Then the second registration panics", func() {
			So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("Then recording never panics", func() {
			So(func() {
				RecordRoundSubmitted()
				RecordRoundDuplicate()
				RecordRoundSubmitError()
				UpdateEntrySessions(3)
				RecordEntryTransition("review")
				RecordStatsComputation()
				RecordCourseSearch(4)
				RecordLikeToggled()
				RecordLikeWriteError()
				UpdateLeaderboardPlayers(10)
				RecordLeaderboardUpdate()
				RecordLeaderboardRebuild()
				RecordBackendCall("insert", "rounds", nil, 1.5)
				RecordBackendCall("select", "rounds", errors.New("boom"), 2)
				UpdateQueueSize(1)
				UpdateQueueCapacity(100)
				RecordQueueEnqueue()
				RecordQueueRejected("full")
				UpdateWorkerCount(2)
				RecordWorkerEvent("round_submitted", nil, 0.3)
				RecordErrorByComponent("api", "bad_request")
				RecordHTTPRequest("courses", "GET", "200", 1)
			}, ShouldNotPanic)
		})

		Convey("Then the backend result label reflects the error", func() {
			before := testutil.ToFloat64(globalManager.backendCalls.WithLabelValues("update", "profiles", "error"))
			RecordBackendCall("update", "profiles", errors.New("down"), 1)
			after := testutil.ToFloat64(globalManager.backendCalls.WithLabelValues("update", "profiles", "error"))
			So(after-before, ShouldEqual, 1)
		})

		Convey("Then the custom registry exposes golfr metrics", func() {
			RecordRoundSubmitted()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
