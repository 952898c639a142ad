package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/contextload"
	"github.com/hupe1980/researchmesh/coordination"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/handoff"
	"github.com/hupe1980/researchmesh/storage"
)

func newTestOrchestrator(t *testing.T, optFns ...func(o *Options)) (*Orchestrator, *storage.InMemoryStore) {
	t.Helper()
	store := storage.NewInMemoryStore()
	o := New(append([]func(o *Options){func(o *Options) { o.Store = store }}, optFns...)...)
	require.NoError(t, o.Initialize())
	t.Cleanup(func() { o.Shutdown(context.Background()) })
	return o, store
}

// recordValidatingWorkload stores enough well-behaved events on every
// collector for all three hypotheses to validate.
func recordValidatingWorkload(t *testing.T, o *Orchestrator) {
	t.Helper()
	for i := 0; i < 40; i++ {
		require.True(t, o.RecordContextLoad(contextload.Load{
			AgentID: "researcher", ContextSize: 90000, LoadTimeMs: 50, OnDemand: true,
		}))
		require.True(t, o.RecordRoutingCompletion(coordination.RoutingCompletion{
			From: "hub", To: "researcher", ThroughHub: true, CoordinationMs: 5, TotalMs: 100,
		}))
		id := fmt.Sprintf("h%d", i)
		require.True(t, o.RecordHandoffCompletion(handoff.Completion{
			HandoffID: id, From: "researcher", To: "writer", Success: true, DurationMs: 120,
		}))
		require.True(t, o.RecordTestExecution(handoff.TestExecution{
			HandoffID: id, Passed: 10, Coverage: 0.9,
		}))
	}
	require.NoError(t, o.ContextLoad().Flush())
	require.NoError(t, o.Coordination().Flush())
	require.NoError(t, o.Handoffs().Flush())
}

func TestOrchestrator_SharedSessionAndBaseline(t *testing.T) {
	o, store := newTestOrchestrator(t)

	assert.Equal(t, o.SessionID(), o.ContextLoad().SessionID())
	assert.Equal(t, o.SessionID(), o.Coordination().SessionID())
	assert.Equal(t, o.SessionID(), o.Handoffs().SessionID())

	// One shared baseline document, not one per collector.
	b, err := store.LoadBaseline()
	require.NoError(t, err)
	assert.Equal(t, o.SessionID(), b.SessionID)
}

func TestOrchestrator_PeriodicValidationEmpty(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	progress, err := o.PerformPeriodicValidation()
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Validated)
	assert.Zero(t, progress.Progress)
	assert.Zero(t, progress.OverallConfidence)
	assert.False(t, progress.Complete())
	assert.Len(t, progress.Results, 3)
}

func TestOrchestrator_ResearchCompleteNotification(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var completes int
	o.Subscribe(func(n core.Notification) {
		if n.Type == core.NotificationResearchComplete {
			completes++
		}
	})

	recordValidatingWorkload(t, o)

	progress, err := o.PerformPeriodicValidation()
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Validated)
	assert.InDelta(t, 1.0, progress.Progress, 1e-9)
	assert.InDelta(t, 0.7, progress.OverallConfidence, 1e-9)
	assert.True(t, progress.Complete())
	assert.Equal(t, 1, completes)
}

func TestOrchestrator_PartialValidation(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var completes int
	o.Subscribe(func(n core.Notification) {
		if n.Type == core.NotificationResearchComplete {
			completes++
		}
	})

	// Only the coordination hypothesis gets enough good data.
	for i := 0; i < 40; i++ {
		require.True(t, o.RecordRoutingCompletion(coordination.RoutingCompletion{
			From: "hub", To: "researcher", ThroughHub: true, CoordinationMs: 5, TotalMs: 100,
		}))
	}
	require.NoError(t, o.Coordination().Flush())

	progress, err := o.PerformPeriodicValidation()
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Validated)
	assert.InDelta(t, 1.0/3.0, progress.Progress, 1e-9)
	assert.Zero(t, completes)
}

func TestOrchestrator_CollectorNotificationsRepublished(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var collected []string
	o.Subscribe(func(n core.Notification) {
		if n.Type == core.NotificationMetricCollected {
			collected = append(collected, n.Collector)
		}
	})

	require.True(t, o.RecordContextLoad(contextload.Load{AgentID: "a", ContextSize: 100, LoadTimeMs: 1}))
	require.True(t, o.RecordHandoffStart(handoff.Start{HandoffID: "h1", From: "a", To: "b"}))

	assert.Equal(t, []string{contextload.Name, handoff.Name}, collected)
}

func TestOrchestrator_GenerateResearchReport(t *testing.T) {
	o, store := newTestOrchestrator(t, func(opt *Options) { opt.AutoExperiments = true })

	recordValidatingWorkload(t, o)

	require.Len(t, o.Runner().Results(), 3)

	var reported int
	o.Subscribe(func(n core.Notification) {
		if n.Type == core.NotificationReportGenerated {
			reported++
		}
	})

	report, err := o.GenerateResearchReport()
	require.NoError(t, err)
	assert.Equal(t, 3, report.Validated)
	assert.InDelta(t, 1.0, report.Progress, 1e-9)
	require.Len(t, report.Hypotheses, 3)
	assert.Equal(t, core.Hypotheses()[0], report.Hypotheses[0].Hypothesis)
	assert.Len(t, report.Experiments, 3)
	assert.NotEmpty(t, report.Caveats)
	assert.Contains(t, report.Summary, "3 of 3 hypotheses validated")
	assert.Equal(t, 1, reported)

	// Structured and narrative renderings are persisted.
	stamp := report.GeneratedAt.UTC().Format("20060102-150405")
	structured := store.Artifact("reports", "research-"+stamp+".json")
	require.NotNil(t, structured)
	var decoded Report
	require.NoError(t, json.Unmarshal(structured, &decoded))
	assert.Equal(t, report.Validated, decoded.Validated)

	narrative := string(store.Artifact("reports", "research-"+stamp+".md"))
	assert.Contains(t, narrative, "# Research Report")
	assert.Contains(t, narrative, "## Executive Summary")
	assert.Contains(t, narrative, "## Statistical Caveats")
	for _, h := range core.Hypotheses() {
		assert.Contains(t, narrative, "### "+h)
	}
}

func TestOrchestrator_ReportCaveatsFlagSmallSamples(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	report, err := o.GenerateResearchReport()
	require.NoError(t, err)

	small := 0
	for _, c := range report.Caveats {
		if strings.Contains(c, "preliminary") {
			small++
		}
	}
	assert.Equal(t, 3, small, "every empty hypothesis reads as preliminary")
}

func TestOrchestrator_ShutdownIdempotent(t *testing.T) {
	store := storage.NewInMemoryStore()
	o := New(func(opt *Options) { opt.Store = store })
	require.NoError(t, o.Initialize())
	require.NoError(t, o.Shutdown(context.Background()))
	require.NoError(t, o.Shutdown(context.Background()))

	// Every collector wrote its session summary.
	assert.Len(t, store.Summaries(), 3)
}
