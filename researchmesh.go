// Package researchmesh provides a high-level façade over the research
// orchestrator and its collectors. Most applications interact with this
// package by:
//  1. Creating a ResearchMesh via New() (optionally overriding the default
//     in-memory store, experiment runner or logger)
//  2. Calling Initialize() to load the baseline and start the timers
//  3. Recording events through the Record* passthroughs
//  4. Reading validation progress and generated reports
//
// The façade delegates to research.Orchestrator while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable store
// implementation and a structured logger.
package researchmesh

import (
	"context"
	"time"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/contextload"
	"github.com/hupe1980/researchmesh/coordination"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/handoff"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/research"
	"github.com/hupe1980/researchmesh/storage"
)

// Options configures the ResearchMesh instance.
type Options struct {
	// Store persists snapshots, aggregations, the baseline, summaries and
	// reports. Shared by every collector so the baseline stays a single
	// document. Defaults to an in-memory implementation.
	Store core.MetricStore

	// Runner is the A/B experiment harness. Defaults to the in-memory
	// runner.
	Runner core.ExperimentRunner

	// CollectorConfig tunes buffering, flushing and retention for every
	// owned collector.
	CollectorConfig collector.Config

	// ValidationInterval is the period of the periodic validation timer.
	ValidationInterval time.Duration

	// ReportInterval is the period of the report generation timer.
	ReportInterval time.Duration

	// AutoExperiments seeds one default A/B experiment per hypothesis at
	// initialization.
	AutoExperiments bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ResearchMesh is the high-level façade aggregating the orchestrator and its
// collectors.
type ResearchMesh struct {
	opts Options
	orch *research.Orchestrator
}

// New creates a new ResearchMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *ResearchMesh {
	opts := Options{
		Store:              storage.NewInMemoryStore(),
		CollectorConfig:    collector.DefaultConfig,
		ValidationInterval: 5 * time.Minute,
		ReportInterval:     30 * time.Minute,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	orch := research.New(func(o *research.Options) {
		o.Store = opts.Store
		o.Runner = opts.Runner
		o.Logger = opts.Logger
		o.Config = opts.CollectorConfig
		o.ValidationInterval = opts.ValidationInterval
		o.ReportInterval = opts.ReportInterval
		o.AutoExperiments = opts.AutoExperiments
	})

	return &ResearchMesh{opts: opts, orch: orch}
}

// Initialize loads or creates the baseline, starts the timers and seeds
// experiments when enabled. Idempotent.
func (m *ResearchMesh) Initialize() error { return m.orch.Initialize() }

// Shutdown stops the timers, writes a final report and shuts everything down.
func (m *ResearchMesh) Shutdown(ctx context.Context) error { return m.orch.Shutdown(ctx) }

// SessionID returns the identifier of this research run.
func (m *ResearchMesh) SessionID() string { return m.orch.SessionID() }

// Subscribe registers a notification handler observing the whole system.
func (m *ResearchMesh) Subscribe(h core.NotificationHandler) { m.orch.Subscribe(h) }

// Orchestrator exposes the underlying research orchestrator for direct
// access to the owned collectors and the experiment harness.
func (m *ResearchMesh) Orchestrator() *research.Orchestrator { return m.orch }

// RecordContextLoad records a context load event.
func (m *ResearchMesh) RecordContextLoad(l contextload.Load) bool { return m.orch.RecordContextLoad(l) }

// RecordContextUnload records a context unload event.
func (m *ResearchMesh) RecordContextUnload(u contextload.Unload) bool {
	return m.orch.RecordContextUnload(u)
}

// RecordRoutingRequest records a routing request between agents.
func (m *ResearchMesh) RecordRoutingRequest(r coordination.RoutingRequest) bool {
	return m.orch.RecordRoutingRequest(r)
}

// RecordRoutingCompletion records the completion of a routed request.
func (m *ResearchMesh) RecordRoutingCompletion(r coordination.RoutingCompletion) bool {
	return m.orch.RecordRoutingCompletion(r)
}

// RecordViolation records a coordination compliance violation.
func (m *ResearchMesh) RecordViolation(v coordination.Violation) bool {
	return m.orch.RecordViolation(v)
}

// RecordHandoffStart records a handoff start event.
func (m *ResearchMesh) RecordHandoffStart(s handoff.Start) bool { return m.orch.RecordHandoffStart(s) }

// RecordHandoffCompletion records a handoff completion event.
func (m *ResearchMesh) RecordHandoffCompletion(c handoff.Completion) bool {
	return m.orch.RecordHandoffCompletion(c)
}

// RecordTestExecution records a handoff test execution event.
func (m *ResearchMesh) RecordTestExecution(te handoff.TestExecution) bool {
	return m.orch.RecordTestExecution(te)
}

// RecordContractValidation records a handoff contract validation event.
func (m *ResearchMesh) RecordContractValidation(cv handoff.ContractValidation) bool {
	return m.orch.RecordContractValidation(cv)
}

// Validate runs one validation pass across all hypotheses and returns the
// merged progress.
func (m *ResearchMesh) Validate() (research.Progress, error) {
	return m.orch.PerformPeriodicValidation()
}

// GenerateReport renders and persists a research report.
func (m *ResearchMesh) GenerateReport() (research.Report, error) {
	return m.orch.GenerateResearchReport()
}
