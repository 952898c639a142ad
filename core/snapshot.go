package core

import "time"

// Snapshot is an immutable batch of metrics and the unit of durability.
// A snapshot is written when the in-memory buffer reaches its configured
// size or the flush timer fires. Metrics keep their buffered order inside
// the batch.
type Snapshot struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Metrics   []Metric  `json:"metrics"`
}

// NewSnapshot wraps the given metrics into a snapshot. The slice is not
// copied; callers hand over ownership.
func NewSnapshot(sessionID string, metrics []Metric) Snapshot {
	return Snapshot{
		ID:        NewID(),
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Metrics:   metrics,
	}
}

// Aggregation is a derived, point-in-time summary over a filtered set of
// metrics. It is persisted as its own artifact and never mutated after
// creation. Aggregated holds counts and domain ratios, Analysis holds
// trends/projections/graph results, Validation holds one entry per
// hypothesis.
type Aggregation struct {
	Timestamp  time.Time                   `json:"timestamp"`
	SessionID  string                      `json:"session_id"`
	TimeRange  TimeRange                   `json:"time_range"`
	SampleSize int                         `json:"sample_size"`
	Aggregated map[string]any              `json:"aggregated"`
	Analysis   map[string]any              `json:"analysis"`
	Validation map[string]HypothesisResult `json:"validation"`
}

// SessionSummary is written once at collector shutdown.
type SessionSummary struct {
	SessionID        string         `json:"session_id"`
	Collector        string         `json:"collector"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	Duration         time.Duration  `json:"duration"`
	MetricsCollected int            `json:"metrics_collected"`
	FinalState       map[string]any `json:"final_state,omitempty"`
}
