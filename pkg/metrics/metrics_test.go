package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "repentdaily")
				So(manager.subsystem, ShouldEqual, "rating")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("elo"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.trackedUsers.Set(7)

			Convey("Then the metrics carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() != "test_elo_tracked_users" {
						continue
					}
					found = true
					So(mf.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 7)
					labels := mf.GetMetric()[0].GetLabel()
					So(labels, ShouldHaveLength, 1)
					So(labels[0].GetName(), ShouldEqual, "env")
					So(labels[0].GetValue(), ShouldEqual, "test")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty option values are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "repentdaily")
				So(manager.subsystem, ShouldEqual, "rating")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRatingMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a habit win is recorded", func() {
			before := testutil.ToFloat64(globalManager.completionsProcessed.WithLabelValues("habit", "win"))
			RecordCompletion("habit", true, 19)

			Convey("Then the win counter moves by one", func() {
				after := testutil.ToFloat64(globalManager.completionsProcessed.WithLabelValues("habit", "win"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When promotions and demotions are recorded", func() {
			up := testutil.ToFloat64(globalManager.rankChanges.WithLabelValues("up"))
			down := testutil.ToFloat64(globalManager.rankChanges.WithLabelValues("down"))
			RecordRankChange(true)
			RecordRankChange(false)
			RecordRankChange(false)

			Convey("Then each direction is counted separately", func() {
				So(testutil.ToFloat64(globalManager.rankChanges.WithLabelValues("up"))-up, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.rankChanges.WithLabelValues("down"))-down, ShouldEqual, 2)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateTrackedUsers(42)
			UpdateQueueSize(3)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.3)
			UpdateWorkerCount(4)

			Convey("Then they hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.trackedUsers), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.3)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When a snapshot is recorded", func() {
			before := testutil.ToFloat64(globalManager.repositorySnapshotCount)
			RecordRepositorySnapshot(1.5, 1_700_000_000)

			Convey("Then the count and timestamp move", func() {
				So(testutil.ToFloat64(globalManager.repositorySnapshotCount)-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.repositorySnapshotLastUnix), ShouldEqual, 1_700_000_000)
			})
		})
	})
}

func TestRecordersDoNotPanic(t *testing.T) {
	Convey("Given every recorder", t, func() {
		Convey("Then none of them panic", func() {
			So(func() { RecordCompletion("todo", false, -1) }, ShouldNotPanic)
			So(func() { RecordCompletionDuplicate() }, ShouldNotPanic)
			So(func() { RecordScoringError() }, ShouldNotPanic)
			So(func() { RecordQueueEnqueue() }, ShouldNotPanic)
			So(func() { RecordQueueDequeue() }, ShouldNotPanic)
			So(func() { RecordQueueEnqueueError() }, ShouldNotPanic)
			So(func() { RecordWorkerProcessingLatency(2.5) }, ShouldNotPanic)
			So(func() { RecordWorkerError() }, ShouldNotPanic)
			So(func() { RecordRepositoryUpdateLatency(0.2) }, ShouldNotPanic)
			So(func() { RecordRepositoryQueryLatency(0.1) }, ShouldNotPanic)
			So(func() { RecordHTTPRequest("/leaderboard", "GET", "200", 3) }, ShouldNotPanic)
			So(func() { RecordHTTPError("/completions", "POST", "bad_request") }, ShouldNotPanic)
			So(func() { RecordErrorByComponent("worker", "apply") }, ShouldNotPanic)
			So(func() { UpdateSystemMemoryUsage(1 << 20) }, ShouldNotPanic)
			So(func() { UpdateSystemGoroutineCount(12) }, ShouldNotPanic)
			So(func() { RecordSystemGCPauseTime(0.4) }, ShouldNotPanic)
		})

		Convey("And the global registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestInitRenamesGlobalMetrics(t *testing.T) {
	Convey("Given the global manager rebuilt with deployment naming", t, func() {
		before := GetRegistry()
		Init(
			WithNamespace("habits"),
			WithSubsystem("elo"),
			WithConstLabels(map[string]string{"env": "staging"}),
			WithHistogramBuckets([]float64{0.5, 5}),
		)
		Reset(func() { Init() })

		UpdateTrackedUsers(3)
		RecordWorkerProcessingLatency(1)

		Convey("Then the exported registry is a fresh one carrying the new names", func() {
			So(GetRegistry() != before, ShouldBeTrue)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			byName := make(map[string]*dto.MetricFamily, len(families))
			for _, mf := range families {
				byName[mf.GetName()] = mf
			}
			So(byName, ShouldNotContainKey, "repentdaily_rating_tracked_users")

			tracked, ok := byName["habits_elo_tracked_users"]
			So(ok, ShouldBeTrue)
			So(tracked.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 3)
			So(tracked.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "staging")

			latency, ok := byName["habits_elo_worker_processing_latency_milliseconds"]
			So(ok, ShouldBeTrue)
			So(latency.GetMetric()[0].GetHistogram().GetBucket(), ShouldHaveLength, 2)
		})
	})
}
