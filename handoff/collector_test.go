package handoff

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c := New()
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	return c
}

func recordHandoff(t *testing.T, c *Collector, id, from, to string, success bool, durationMs float64) {
	t.Helper()
	require.True(t, c.RecordStart(Start{HandoffID: id, From: from, To: to, Contract: "v1"}))
	require.True(t, c.RecordCompletion(Completion{HandoffID: id, From: from, To: to, Success: success, DurationMs: durationMs}))
}

func TestCollector_RecordValidation(t *testing.T) {
	c := newTestCollector(t)

	assert.False(t, c.RecordStart(Start{From: "a", To: "b"}), "handoff id is required")
	assert.False(t, c.RecordCompletion(Completion{HandoffID: "h1", From: "a"}))
	assert.False(t, c.RecordCompletion(Completion{HandoffID: "h1", From: "a", To: "b", DurationMs: -1}))
	assert.False(t, c.RecordTestExecution(TestExecution{HandoffID: "h1", Passed: -1}))
	assert.False(t, c.RecordContractValidation(ContractValidation{Violations: 1}))
	assert.Equal(t, 0, c.MetricsCollected())
}

func TestCollector_Aggregation(t *testing.T) {
	c := newTestCollector(t)

	recordHandoff(t, c, "h1", "researcher", "writer", true, 100)
	recordHandoff(t, c, "h2", "researcher", "writer", false, 300)
	require.True(t, c.RecordTestExecution(TestExecution{HandoffID: "h1", Passed: 8, Failed: 1, Skipped: 1, Coverage: 0.85}))
	require.True(t, c.RecordContractValidation(ContractValidation{HandoffID: "h2", Violations: 2, AutoFixed: true}))
	require.NoError(t, c.Flush())

	agg, err := c.Aggregate(core.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Aggregated["starts"])
	assert.Equal(t, 2, agg.Aggregated["completions"])
	assert.InDelta(t, 0.5, agg.Aggregated["success_rate"].(float64), 1e-9)
	assert.InDelta(t, 200, agg.Aggregated["avg_duration_ms"].(float64), 1e-9)
	assert.Equal(t, 8, agg.Aggregated["tests_passed"])
	assert.Equal(t, 1, agg.Aggregated["tests_failed"])
	assert.InDelta(t, 0.85, agg.Aggregated["avg_test_coverage"].(float64), 1e-9)
	assert.Equal(t, 2, agg.Aggregated["contract_violations"])
	assert.Equal(t, 1, agg.Aggregated["auto_fixed"])
}

func TestCollector_PairRollups(t *testing.T) {
	c := newTestCollector(t)

	for i := 0; i < 4; i++ {
		recordHandoff(t, c, fmt.Sprintf("r%d", i), "researcher", "writer", true, 100)
	}
	recordHandoff(t, c, "p0", "writer", "reviewer", true, 200)
	recordHandoff(t, c, "p1", "writer", "reviewer", false, 400)

	reliable, ok := c.MostReliablePair()
	require.True(t, ok)
	assert.Equal(t, "researcher->writer", reliable.Pair)
	assert.InDelta(t, 1.0, reliable.SuccessRate, 1e-9)
	assert.InDelta(t, 100, reliable.AvgDurationMs, 1e-9)

	problematic, ok := c.MostProblematicPair()
	require.True(t, ok)
	assert.Equal(t, "writer->reviewer", problematic.Pair)
	assert.InDelta(t, 0.5, problematic.SuccessRate, 1e-9)

	// Analysis derives the same ranking from the persisted stream.
	require.NoError(t, c.Flush())
	agg, err := c.Aggregate(core.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, "researcher->writer", agg.Analysis["most_reliable_pair"].(PairSummary).Pair)
	assert.Equal(t, "writer->reviewer", agg.Analysis["most_problematic_pair"].(PairSummary).Pair)
}

func TestCollector_EmptyPairRollup(t *testing.T) {
	c := newTestCollector(t)
	_, ok := c.MostReliablePair()
	assert.False(t, ok)
	_, ok = c.MostProblematicPair()
	assert.False(t, ok)
}

func TestCollector_ValidatesWhenAllCriteriaClear(t *testing.T) {
	c := newTestCollector(t)

	// 40 completions with 38 successes is a 95% success rate; coverage
	// averages 0.9 and 40 samples score confidence 0.7.
	for i := 0; i < 40; i++ {
		recordHandoff(t, c, fmt.Sprintf("h%d", i), "researcher", "writer", i >= 2, 120)
		require.True(t, c.RecordTestExecution(TestExecution{HandoffID: fmt.Sprintf("h%d", i), Passed: 10, Coverage: 0.9}))
	}
	require.NoError(t, c.Flush())

	agg, err := c.Aggregate(core.TimeRange{})
	require.NoError(t, err)
	res, ok := agg.Validation[core.HypothesisContractHandoffs]
	require.True(t, ok)
	assert.True(t, res.Validated)
	assert.Equal(t, 0.7, res.Confidence)
	assert.Len(t, res.Evidence, 3)
}

func TestCollector_AllButOneCriterion(t *testing.T) {
	tests := []struct {
		name     string
		success  bool
		coverage float64
		failing  string
	}{
		{name: "low coverage blocks validation", success: true, coverage: 0.5, failing: "test_coverage"},
		{name: "low success rate blocks validation", success: false, coverage: 0.95, failing: "success_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCollector(t)
			for i := 0; i < 40; i++ {
				recordHandoff(t, c, fmt.Sprintf("h%d", i), "a", "b", tt.success, 100)
				require.True(t, c.RecordTestExecution(TestExecution{HandoffID: fmt.Sprintf("h%d", i), Passed: 5, Coverage: tt.coverage}))
			}
			require.NoError(t, c.Flush())

			agg, err := c.Aggregate(core.TimeRange{})
			require.NoError(t, err)
			res := agg.Validation[core.HypothesisContractHandoffs]
			assert.False(t, res.Validated)
			assert.False(t, res.Criteria[tt.failing].Satisfied)
			for name, criterion := range res.Criteria {
				if name != tt.failing {
					assert.True(t, criterion.Satisfied, name)
				}
			}
		})
	}
}
