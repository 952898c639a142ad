package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	snap := testSnapshot("sess", time.Now().UTC(), "handoff_start", "handoff_completion", "handoff_test_execution")
	require.NoError(t, s.SaveSnapshot("handoff", snap))

	got, err := s.Snapshots("handoff")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, snap.ID, got[0].ID)
	require.Len(t, got[0].Metrics, 3)
	// Buffered order survives the round trip.
	assert.Equal(t, "handoff_start", got[0].Metrics[0].EventType)
	assert.Equal(t, "handoff_completion", got[0].Metrics[1].EventType)
	assert.Equal(t, "handoff_test_execution", got[0].Metrics[2].EventType)
	assert.Equal(t, snap.Metrics[0].Timestamp.UnixNano(), got[0].Metrics[0].Timestamp.UnixNano())
}

func TestSQLiteStore_EphemeralConcurrentAccess(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	now := time.Now().UTC()
	require.NoError(t, s.SaveSnapshot("context", testSnapshot("sess", now, "context_load")))

	// Concurrent reads and writes grow the connection pool; every
	// connection must see the same schema and data.
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap := testSnapshot("sess", now.Add(time.Duration(i+1)*time.Millisecond), "context_load")
			if err := s.SaveSnapshot("context", snap); err != nil {
				errs <- err
			}
			if _, err := s.Snapshots("context"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Snapshots("context")
	require.NoError(t, err)
	assert.Len(t, got, 11)
}

func TestSQLiteStore_BaselineCreateOnce(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.LoadBaseline()
	assert.ErrorIs(t, err, core.ErrBaselineNotFound)

	require.NoError(t, s.SaveBaseline(core.DefaultBaseline("sess")))
	assert.ErrorIs(t, s.SaveBaseline(core.DefaultBaseline("other")), core.ErrBaselineExists)
}

func TestSQLiteStore_Prune(t *testing.T) {
	s := newTestSQLiteStore(t)
	now := time.Now().UTC()
	old := testSnapshot("sess", now.Add(-48*time.Hour), "context_load")
	fresh := testSnapshot("sess", now, "context_load")
	require.NoError(t, s.SaveSnapshot("context", old))
	require.NoError(t, s.SaveSnapshot("context", fresh))
	require.NoError(t, s.SaveAggregation("context", core.Aggregation{Timestamp: now.Add(-48 * time.Hour)}))

	removed, err := s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got, err := s.Snapshots("context")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestSQLiteStore_SummariesAndArtifacts(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.SaveSummary(core.SessionSummary{SessionID: "sess", Collector: "context", MetricsCollected: 7}))
	// Upsert keeps the latest document for the pair.
	require.NoError(t, s.SaveSummary(core.SessionSummary{SessionID: "sess", Collector: "context", MetricsCollected: 9}))

	require.NoError(t, s.SaveArtifact("reports", "research.json", []byte("{}")))
	require.NoError(t, s.SaveArtifact("reports", "research.json", []byte(`{"v":2}`)))
}
