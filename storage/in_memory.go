package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/core"
)

// InMemoryStore is a volatile MetricStore implementation keeping every
// artifact in process-local maps guarded by an RWMutex. It is safe for
// concurrent use and best suited for tests, examples and single-process
// prototypes. Returned slices are copies to prevent external mutation of
// internal state.
//
// This implementation is intentionally minimal; durability and retention
// semantics match the interface contract but nothing survives a restart.
type InMemoryStore struct {
	mu           sync.RWMutex
	snapshots    map[string][]core.Snapshot    // collector -> snapshots in save order
	aggregations map[string][]core.Aggregation // collector -> aggregations in save order
	baseline     *core.Baseline
	summaries    []core.SessionSummary
	artifacts    map[string]map[string][]byte // kind -> name -> data
}

// NewInMemoryStore returns an empty in-memory metric store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots:    make(map[string][]core.Snapshot),
		aggregations: make(map[string][]core.Aggregation),
		artifacts:    make(map[string]map[string][]byte),
	}
}

// SaveSnapshot appends the snapshot for the collector.
func (s *InMemoryStore) SaveSnapshot(collector string, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[collector] = append(s.snapshots[collector], snap)
	return nil
}

// Snapshots returns a copy of every snapshot stored for the collector.
func (s *InMemoryStore) Snapshots(collector string) ([]core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snaps := s.snapshots[collector]
	cp := make([]core.Snapshot, len(snaps))
	copy(cp, snaps)
	return cp, nil
}

// SaveAggregation appends the aggregation for the collector.
func (s *InMemoryStore) SaveAggregation(collector string, agg core.Aggregation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregations[collector] = append(s.aggregations[collector], agg)
	return nil
}

// Aggregations returns stored aggregations ordered by timestamp ascending.
func (s *InMemoryStore) Aggregations(collector string) ([]core.Aggregation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	aggs := s.aggregations[collector]
	cp := make([]core.Aggregation, len(aggs))
	copy(cp, aggs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Timestamp.Before(cp[j].Timestamp) })
	return cp, nil
}

// LoadBaseline returns the baseline or core.ErrBaselineNotFound.
func (s *InMemoryStore) LoadBaseline() (core.Baseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseline == nil {
		return core.Baseline{}, core.ErrBaselineNotFound
	}
	return *s.baseline, nil
}

// SaveBaseline stores the baseline exactly once.
func (s *InMemoryStore) SaveBaseline(b core.Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseline != nil {
		return core.ErrBaselineExists
	}
	s.baseline = &b
	return nil
}

// SaveSummary appends a session summary.
func (s *InMemoryStore) SaveSummary(summary core.SessionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

// Summaries returns a copy of the stored session summaries.
func (s *InMemoryStore) Summaries() []core.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]core.SessionSummary, len(s.summaries))
	copy(cp, s.summaries)
	return cp
}

// SaveArtifact stores (or overwrites) an opaque document. The input slice is
// copied before storage.
func (s *InMemoryStore) SaveArtifact(kind, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[kind]; !ok {
		s.artifacts[kind] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.artifacts[kind][name] = cp
	return nil
}

// Artifact returns a copy of a stored document, or nil when absent.
func (s *InMemoryStore) Artifact(kind, name string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[kind][name]
	if !ok {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp
}

// Prune removes snapshots and aggregations older than the given instant.
func (s *InMemoryStore) Prune(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for collector, snaps := range s.snapshots {
		kept := snaps[:0]
		for _, snap := range snaps {
			if snap.Timestamp.Before(before) {
				removed++
				continue
			}
			kept = append(kept, snap)
		}
		s.snapshots[collector] = kept
	}
	for collector, aggs := range s.aggregations {
		kept := aggs[:0]
		for _, agg := range aggs {
			if agg.Timestamp.Before(before) {
				removed++
				continue
			}
			kept = append(kept, agg)
		}
		s.aggregations[collector] = kept
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
