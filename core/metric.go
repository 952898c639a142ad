package core

import (
	"time"

	"github.com/google/uuid"
)

// Metric is the primary unit of measurement flowing through the system. A
// metric is created by a collector's Store call, buffered in memory and made
// durable as part of a Snapshot. After emission it must be treated as
// immutable.
//
// Data carries the event specific payload; Metadata carries producer supplied
// context (host, component, experiment variant). Both are free-form maps so
// the engine stays agnostic of domain vocabularies; the typed Record* methods
// of the domain collectors validate required fields at the boundary.
type Metric struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMetric creates a metric with a fresh unique ID and a UTC timestamp.
func NewMetric(sessionID, eventType string, data, metadata map[string]any) Metric {
	return Metric{
		ID:        NewID(),
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Data:      data,
		Metadata:  metadata,
	}
}

// NewID generates a unique identifier for metrics, snapshots and experiments.
// UUIDs replace the time-plus-random-suffix scheme so uniqueness is
// guaranteed rather than probabilistic.
func NewID() string { return uuid.NewString() }

// Valid reports whether the record carries every required field. Malformed
// records are rejected by the collector without interrupting the caller.
func (m Metric) Valid() bool {
	return m.ID != "" && m.SessionID != "" && m.EventType != "" && !m.Timestamp.IsZero() && m.Data != nil
}

// Filter narrows a Retrieve scan over persisted metrics. Zero values mean
// "no constraint"; the time bounds are inclusive on both ends.
type Filter struct {
	StartTime time.Time
	EndTime   time.Time
	EventType string
	SessionID string
}

// Matches reports whether the metric satisfies every set constraint.
func (f Filter) Matches(m Metric) bool {
	if !f.StartTime.IsZero() && m.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && m.Timestamp.After(f.EndTime) {
		return false
	}
	if f.EventType != "" && m.EventType != f.EventType {
		return false
	}
	if f.SessionID != "" && m.SessionID != f.SessionID {
		return false
	}
	return true
}

// TimeRange bounds an aggregation window. Zero values mean unbounded.
type TimeRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Filter converts the range into a metric filter.
func (tr TimeRange) Filter() Filter {
	return Filter{StartTime: tr.Start, EndTime: tr.End}
}
