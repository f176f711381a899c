package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
)

// SpanSpy is a captured span.
type SpanSpy struct {
	mu         sync.Mutex
	Name       string
	Status     string
	Attributes map[string]string
	Finished   bool
}

// SetStatus records the span status.
func (s *SpanSpy) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = status
}

// AddAttribute records one span attribute.
func (s *SpanSpy) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Attributes[key] = value
}

// TracingCollectorSpy captures spans for testing.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpanSpy
}

// NewTracingCollectorSpy creates an empty TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan creates a SpanSpy. The returned context is the input context.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	span := &SpanSpy{Name: name, Attributes: maps.Clone(attrs)}
	if span.Attributes == nil {
		span.Attributes = map[string]string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, span)

	return ctx, span
}

// FinishSpan marks the span finished with status and attributes.
func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpanSpy)
	if !ok || span == nil {
		return
	}

	span.mu.Lock()
	defer span.mu.Unlock()

	span.Finished = true
	span.Status = status
	maps.Copy(span.Attributes, attrs)
}

// Spans returns all captured spans.
func (s *TracingCollectorSpy) Spans() []*SpanSpy {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]*SpanSpy, len(s.spans))
	copy(spans, s.spans)

	return spans
}
