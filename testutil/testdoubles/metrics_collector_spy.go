package testdoubles

import (
	"maps"
	"sync"
	"time"
)

// MetricsRecord is one captured metrics call.
type MetricsRecord struct {
	Kind     string
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures metrics calls for testing.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []MetricsRecord
}

// NewMetricsCollectorSpy creates an empty MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

// RecordDuration captures a duration metric.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricsRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

// IncrementCounter captures a counter increment.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(MetricsRecord{Kind: "counter", Metric: metric, Labels: maps.Clone(labels)})
}

// RecordValue captures a value metric.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(MetricsRecord{Kind: "value", Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) record(r MetricsRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
}

// Records returns a copy of all captured records.
func (s *MetricsCollectorSpy) Records() []MetricsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]MetricsRecord, len(s.records))
	copy(records, s.records)

	return records
}

// RecordsFor returns the captured records for one metric name.
func (s *MetricsCollectorSpy) RecordsFor(metric string) []MetricsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []MetricsRecord
	for _, r := range s.records {
		if r.Metric == metric {
			records = append(records, r)
		}
	}

	return records
}

// HasRecord checks whether a record exists for the metric with all the given labels.
func (s *MetricsCollectorSpy) HasRecord(metric string, labels map[string]string) bool {
	for _, r := range s.RecordsFor(metric) {
		matched := true
		for k, v := range labels {
			if r.Labels[k] != v {
				matched = false
				break
			}
		}

		if matched {
			return true
		}
	}

	return false
}
