package oteladapters_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/reservation-queue-go/oteladapters"
)

func newMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &resourceMetrics))

	for _, scope := range resourceMetrics.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %s was not collected", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()

	// act
	collector.RecordDuration("eventstore_query_duration_seconds", 150*time.Millisecond, map[string]string{"status": "success"})

	// assert
	histogram, ok := collect(t, reader, "eventstore_query_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()
	labels := map[string]string{"notification_kind": "ReservationQueued"}

	// act
	collector.IncrementCounter("reservationqueue_notifications_total", labels)
	collector.IncrementCounter("reservationqueue_notifications_total", labels)
	collector.IncrementCounter("reservationqueue_notifications_total", map[string]string{"notification_kind": "QueueHeadChanged"})

	// assert
	sum, ok := collect(t, reader, "reservationqueue_notifications_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	total := int64(0)
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()

	// act
	collector.RecordValue("eventstore_query_events_count", 4, nil)
	collector.RecordValue("eventstore_query_events_count", 7, nil)

	// assert
	gauge, ok := collect(t, reader, "eventstore_query_events_count").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 7.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()
	done := make(chan struct{})

	// act
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				collector.IncrementCounter("commandhandler_handle_calls_total", map[string]string{"status": "success"})
			}
		}()
	}
	for range 8 {
		<-done
	}

	// assert
	sum, ok := collect(t, reader, "commandhandler_handle_calls_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(800), sum.DataPoints[0].Value)
}
