package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When created with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("testns"),
				WithSubsystem("testsub"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithMetricsEnabled(true),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestRecordingHelpers(t *testing.T) {
	Convey("Given the package-level helpers", t, func() {
		Convey("Recording through them should not panic", func() {
			So(func() {
				RecordMatchProcessed()
				RecordDrawProcessed()
				RecordIdleInflations(3)
				RecordPairUpdates(28)
				RecordPairUpdateError()
				ObserveBalanceIterations(142)
				ObserveBalanceObjective(0.7)
				ObserveSweepDuration(12.5)
				UpdatePlayersTracked(48)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed for the metrics endpoint", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
