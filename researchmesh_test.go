package researchmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/contextload"
	"github.com/hupe1980/researchmesh/coordination"
	"github.com/hupe1980/researchmesh/handoff"
)

func TestResearchMesh_EndToEnd(t *testing.T) {
	mesh := New(func(o *Options) { o.AutoExperiments = true })
	require.NoError(t, mesh.Initialize())
	defer mesh.Shutdown(context.Background())

	for i := 0; i < 40; i++ {
		require.True(t, mesh.RecordContextLoad(contextload.Load{
			AgentID: "researcher", ContextSize: 90000, LoadTimeMs: 40, OnDemand: true,
		}))
		require.True(t, mesh.RecordRoutingCompletion(coordination.RoutingCompletion{
			From: "hub", To: "researcher", ThroughHub: true, CoordinationMs: 5, TotalMs: 100,
		}))
	}
	require.True(t, mesh.RecordHandoffStart(handoff.Start{HandoffID: "h1", From: "researcher", To: "writer"}))
	require.True(t, mesh.RecordHandoffCompletion(handoff.Completion{HandoffID: "h1", From: "researcher", To: "writer", Success: true, DurationMs: 80}))

	require.NoError(t, mesh.Orchestrator().ContextLoad().Flush())
	require.NoError(t, mesh.Orchestrator().Coordination().Flush())
	require.NoError(t, mesh.Orchestrator().Handoffs().Flush())

	progress, err := mesh.Validate()
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Validated, "handoff sample is too small to validate")

	report, err := mesh.GenerateReport()
	require.NoError(t, err)
	assert.Len(t, report.Hypotheses, 3)
	assert.Len(t, report.Experiments, 3)
	assert.NotEmpty(t, mesh.SessionID())
}
