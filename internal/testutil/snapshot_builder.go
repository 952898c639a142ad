package testutil

import (
	"time"

	"github.com/hupe1980/researchmesh/core"
)

// SnapshotBuilder provides a fluent helper for constructing snapshots in
// tests. Example:
//
//	snap := NewSnapshotBuilder().Session("sess").Events("context_load", "context_unload").Build()
type SnapshotBuilder struct {
	sessionID string
	timestamp time.Time
	metrics   []core.Metric
}

// NewSnapshotBuilder creates a builder with default session "test-session".
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{sessionID: "test-session"}
}

// Session sets the session ID for the snapshot and any metrics added through
// Events afterwards (chainable).
func (b *SnapshotBuilder) Session(id string) *SnapshotBuilder { b.sessionID = id; return b }

// At sets the snapshot timestamp; metrics added through Events afterwards
// inherit it (chainable).
func (b *SnapshotBuilder) At(ts time.Time) *SnapshotBuilder { b.timestamp = ts; return b }

// Add appends pre-built metrics (chainable).
func (b *SnapshotBuilder) Add(metrics ...core.Metric) *SnapshotBuilder {
	b.metrics = append(b.metrics, metrics...)
	return b
}

// Events appends one minimal metric per event type, in order (chainable).
func (b *SnapshotBuilder) Events(eventTypes ...string) *SnapshotBuilder {
	for _, t := range eventTypes {
		mb := NewMetricBuilder().Session(b.sessionID).Event(t)
		if !b.timestamp.IsZero() {
			mb.At(b.timestamp)
		}
		b.metrics = append(b.metrics, mb.Build())
	}
	return b
}

// Build assembles the snapshot.
func (b *SnapshotBuilder) Build() core.Snapshot {
	snap := core.NewSnapshot(b.sessionID, b.metrics)
	if !b.timestamp.IsZero() {
		snap.Timestamp = b.timestamp
	}
	return snap
}
