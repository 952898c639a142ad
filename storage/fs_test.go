package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
)

func newTestFileStore(t *testing.T, compress bool) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), func(o *FileStoreOptions) { o.Compress = compress })
	require.NoError(t, err)
	return s
}

func TestFileStore_SnapshotRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		s := newTestFileStore(t, compress)
		snap := testSnapshot("sess", time.Now().UTC().Truncate(time.Millisecond), "routing_request", "routing_completion")
		require.NoError(t, s.SaveSnapshot("coordination", snap))

		got, err := s.Snapshots("coordination")
		require.NoError(t, err)
		require.Len(t, got, 1, "compress=%v", compress)
		assert.Equal(t, snap.ID, got[0].ID)
		require.Len(t, got[0].Metrics, 2)
		assert.Equal(t, "routing_request", got[0].Metrics[0].EventType)
		assert.Equal(t, "routing_completion", got[0].Metrics[1].EventType)
	}
}

func TestFileStore_SnapshotsSortedByTimestamp(t *testing.T) {
	s := newTestFileStore(t, false)
	now := time.Now().UTC().Truncate(time.Millisecond)
	later := testSnapshot("sess", now)
	earlier := testSnapshot("sess", now.Add(-time.Hour))
	require.NoError(t, s.SaveSnapshot("context", later))
	require.NoError(t, s.SaveSnapshot("context", earlier))

	got, err := s.Snapshots("context")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlier.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestFileStore_CorruptedSnapshotSkipped(t *testing.T) {
	s := newTestFileStore(t, false)
	snap := testSnapshot("sess", time.Now().UTC(), "handoff_start")
	require.NoError(t, s.SaveSnapshot("handoff", snap))

	// A corrupted sibling must not break the scan.
	corrupt := filepath.Join(s.Root(), "handoff", "snapshots", "snap-123-deadbeef.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))

	got, err := s.Snapshots("handoff")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, snap.ID, got[0].ID)
}

func TestFileStore_MissingCollectorDir(t *testing.T) {
	s := newTestFileStore(t, false)
	got, err := s.Snapshots("never-written")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_BaselineCreateOnce(t *testing.T) {
	s := newTestFileStore(t, false)
	_, err := s.LoadBaseline()
	assert.ErrorIs(t, err, core.ErrBaselineNotFound)

	require.NoError(t, s.SaveBaseline(core.DefaultBaseline("sess")))
	assert.ErrorIs(t, s.SaveBaseline(core.DefaultBaseline("other")), core.ErrBaselineExists)

	got, err := s.LoadBaseline()
	require.NoError(t, err)
	assert.Equal(t, "sess", got.SessionID)
}

func TestFileStore_CorruptedBaselineTreatedAsAbsent(t *testing.T) {
	s := newTestFileStore(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "baseline.json"), []byte("garbage"), 0o644))

	_, err := s.LoadBaseline()
	assert.ErrorIs(t, err, core.ErrBaselineNotFound)
}

func TestFileStore_RetentionPrune(t *testing.T) {
	// Retention period of one day: the older snapshot ages out, the newer
	// one is retained.
	s := newTestFileStore(t, false)
	now := time.Now().UTC()
	old := testSnapshot("sess", now.Add(-36*time.Hour), "context_load")
	fresh := testSnapshot("sess", now, "context_load")
	require.NoError(t, s.SaveSnapshot("context", old))
	require.NoError(t, s.SaveSnapshot("context", fresh))

	removed, err := s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := s.Snapshots("context")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)

	// A second cleanup cycle finds nothing else to remove.
	removed, err = s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFileStore_AggregationRoundTrip(t *testing.T) {
	s := newTestFileStore(t, false)
	agg := core.Aggregation{
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
		SessionID:  "sess",
		SampleSize: 40,
		Aggregated: map[string]any{"routing_compliance": 0.9},
		Analysis:   map[string]any{},
		Validation: map[string]core.HypothesisResult{
			core.HypothesisHubAndSpoke: core.EmptyResult(core.HypothesisHubAndSpoke),
		},
	}
	require.NoError(t, s.SaveAggregation("coordination", agg))

	got, err := s.Aggregations("coordination")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 40, got[0].SampleSize)
	assert.Contains(t, got[0].Validation, core.HypothesisHubAndSpoke)
}

func TestFileStore_SummaryAndArtifacts(t *testing.T) {
	s := newTestFileStore(t, false)
	require.NoError(t, s.SaveSummary(core.SessionSummary{
		SessionID: "sess", Collector: "coordination",
		StartTime: time.Now().Add(-time.Hour), EndTime: time.Now(),
		Duration: time.Hour, MetricsCollected: 12,
	}))
	assert.FileExists(t, filepath.Join(s.Root(), "summaries", "coordination-sess.json"))

	require.NoError(t, s.SaveArtifact("reports", "research.md", []byte("# Report")))
	assert.FileExists(t, filepath.Join(s.Root(), "artifacts", "reports", "research.md"))
}
