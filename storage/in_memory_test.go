package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/internal/testutil"
)

func testSnapshot(sessionID string, ts time.Time, eventTypes ...string) core.Snapshot {
	b := testutil.NewSnapshotBuilder().Session(sessionID).At(ts)
	for i, et := range eventTypes {
		b.Add(testutil.NewMetricBuilder().
			Session(sessionID).
			Event(et).
			At(ts.Add(time.Duration(i) * time.Millisecond)).
			Data("n", i).
			Build())
	}
	return b.Build()
}

func TestInMemoryStore_SnapshotRoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	snap := testSnapshot("sess", time.Now().UTC(), "a", "b")
	require.NoError(t, s.SaveSnapshot("coordination", snap))

	got, err := s.Snapshots("coordination")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, snap.ID, got[0].ID)
	assert.Len(t, got[0].Metrics, 2)

	// Other collectors see nothing.
	other, err := s.Snapshots("handoff")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestInMemoryStore_BaselineCreateOnce(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.LoadBaseline()
	assert.ErrorIs(t, err, core.ErrBaselineNotFound)

	b := core.DefaultBaseline("sess")
	require.NoError(t, s.SaveBaseline(b))
	assert.ErrorIs(t, s.SaveBaseline(b), core.ErrBaselineExists)

	got, err := s.LoadBaseline()
	require.NoError(t, err)
	assert.Equal(t, b.Measurements, got.Measurements)
}

func TestInMemoryStore_Prune(t *testing.T) {
	s := NewInMemoryStore()
	old := testSnapshot("sess", time.Now().Add(-48*time.Hour))
	fresh := testSnapshot("sess", time.Now())
	require.NoError(t, s.SaveSnapshot("context", old))
	require.NoError(t, s.SaveSnapshot("context", fresh))

	removed, err := s.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := s.Snapshots("context")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestInMemoryStore_Artifacts(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.SaveArtifact("reports", "research.json", []byte(`{"ok":true}`)))
	assert.Equal(t, []byte(`{"ok":true}`), s.Artifact("reports", "research.json"))
	assert.Nil(t, s.Artifact("reports", "missing.json"))
}

func TestInMemoryStore_Aggregations(t *testing.T) {
	s := NewInMemoryStore()
	later := core.Aggregation{Timestamp: time.Now(), SampleSize: 2}
	earlier := core.Aggregation{Timestamp: time.Now().Add(-time.Hour), SampleSize: 1}
	require.NoError(t, s.SaveAggregation("handoff", later))
	require.NoError(t, s.SaveAggregation("handoff", earlier))

	got, err := s.Aggregations("handoff")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].SampleSize, "ascending timestamp order")
	assert.Equal(t, 2, got[1].SampleSize)
}
