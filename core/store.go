package core

import "time"

// MetricStore defines the persistence contract for snapshots, aggregations,
// the baseline, session summaries and rendered report artifacts.
//
// The canonical interface lives here so the collector engine and the
// research orchestrator stay independent of any storage backend; concrete
// implementations (in-memory, file system, SQLite) live in the storage
// package. Implementations must be safe for concurrent use: flush and
// cleanup timers interleave with synchronous Store calls.
//
// Snapshots and aggregations are scoped by collector name. The baseline is
// a single shared document with create-once semantics: SaveBaseline must
// return ErrBaselineExists when a baseline is already present.
type MetricStore interface {
	// SaveSnapshot persists an immutable metric batch for the collector.
	SaveSnapshot(collector string, snap Snapshot) error

	// Snapshots returns every readable snapshot for the collector.
	// Unreadable or corrupted snapshots are skipped with a warning, never
	// surfaced as an error.
	Snapshots(collector string) ([]Snapshot, error)

	// SaveAggregation persists a derived aggregation artifact.
	SaveAggregation(collector string, agg Aggregation) error

	// Aggregations returns every readable aggregation for the collector,
	// ordered by timestamp ascending.
	Aggregations(collector string) ([]Aggregation, error)

	// LoadBaseline returns the baseline or ErrBaselineNotFound.
	LoadBaseline() (Baseline, error)

	// SaveBaseline creates the baseline document exactly once.
	SaveBaseline(b Baseline) error

	// SaveSummary persists a session summary at collector shutdown.
	SaveSummary(s SessionSummary) error

	// SaveArtifact persists an opaque rendered document (reports,
	// narratives, exports) under a kind/name pair.
	SaveArtifact(kind, name string, data []byte) error

	// Prune deletes snapshot and aggregation artifacts older than the
	// given instant, returning how many were removed.
	Prune(before time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
