package testutil

import (
	"time"

	"github.com/hupe1980/researchmesh/core"
)

// MetricBuilder provides a fluent helper for constructing metric records in
// tests. Example:
//
//	m := NewMetricBuilder().Session("sess").Event("context_load").Data("context_size", 1200).Build()
type MetricBuilder struct {
	id        string
	sessionID string
	eventType string
	timestamp time.Time
	data      map[string]any
	metadata  map[string]any
}

// NewMetricBuilder creates a builder with default session "test-session"
// and event type "test_event".
func NewMetricBuilder() *MetricBuilder {
	return &MetricBuilder{
		sessionID: "test-session",
		eventType: "test_event",
		data:      map[string]any{},
	}
}

// ID overrides the auto-generated metric ID (chainable).
func (b *MetricBuilder) ID(id string) *MetricBuilder { b.id = id; return b }

// Session sets the session ID (chainable).
func (b *MetricBuilder) Session(id string) *MetricBuilder { b.sessionID = id; return b }

// Event sets the event type (chainable).
func (b *MetricBuilder) Event(t string) *MetricBuilder { b.eventType = t; return b }

// At sets the timestamp (chainable). Defaults to time.Now in UTC.
func (b *MetricBuilder) At(ts time.Time) *MetricBuilder { b.timestamp = ts; return b }

// Data sets one payload field (chainable).
func (b *MetricBuilder) Data(key string, value any) *MetricBuilder {
	b.data[key] = value
	return b
}

// Meta sets one metadata field (chainable).
func (b *MetricBuilder) Meta(key string, value any) *MetricBuilder {
	if b.metadata == nil {
		b.metadata = map[string]any{}
	}
	b.metadata[key] = value
	return b
}

// Build assembles the metric.
func (b *MetricBuilder) Build() core.Metric {
	m := core.NewMetric(b.sessionID, b.eventType, b.data, b.metadata)
	if b.id != "" {
		m.ID = b.id
	}
	if !b.timestamp.IsZero() {
		m.Timestamp = b.timestamp
	}
	return m
}
