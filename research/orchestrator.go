package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/contextload"
	"github.com/hupe1980/researchmesh/coordination"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/experiment"
	"github.com/hupe1980/researchmesh/handoff"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/storage"
)

// Options configures an Orchestrator.
type Options struct {
	// Store is shared by all three collectors so the baseline stays a
	// single document. Defaults to an in-memory implementation.
	Store core.MetricStore

	// Runner is the A/B experiment harness. Defaults to the in-memory
	// runner.
	Runner core.ExperimentRunner

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Config tunes every owned collector engine.
	Config collector.Config

	// SessionID identifies this research run. Defaults to a fresh UUID.
	SessionID string

	// ValidationInterval is the period of the periodic validation timer.
	ValidationInterval time.Duration

	// ReportInterval is the period of the report generation timer.
	ReportInterval time.Duration

	// AutoExperiments seeds and starts the default experiment definitions
	// at initialization, one A/B comparison per hypothesis.
	AutoExperiments bool

	// ExperimentDefs overrides the seeded definitions when AutoExperiments
	// is set. Empty means the built-in defaults.
	ExperimentDefs []experiment.Definition
}

// Progress summarizes one validation run across all hypotheses.
type Progress struct {
	Timestamp         time.Time                        `json:"timestamp"`
	Results           map[string]core.HypothesisResult `json:"results"`
	SampleSizes       map[string]int                   `json:"sample_sizes"`
	Validated         int                              `json:"validated"`
	Progress          float64                          `json:"progress"`
	OverallConfidence float64                          `json:"overall_confidence"`
}

// Complete reports whether every hypothesis validated on this run.
func (p Progress) Complete() bool { return p.Validated == len(core.Hypotheses()) }

// Orchestrator owns one instance of each domain collector plus the
// experiment harness. It republishes collector notifications on its own
// notifier and drives validation and reporting timers.
type Orchestrator struct {
	store     core.MetricStore
	runner    core.ExperimentRunner
	logger    logging.Logger
	sessionID string

	contextLoad *contextload.Collector
	coord       *coordination.Collector
	handoffs    *handoff.Collector

	validationInterval time.Duration
	reportInterval     time.Duration
	autoExperiments    bool
	experimentDefs     []experiment.Definition

	notifier core.Notifier

	mu          sync.Mutex
	initialized bool
	closed      bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New constructs a research orchestrator with all three domain collectors
// sharing one store, session and configuration.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Store:              storage.NewInMemoryStore(),
		Logger:             logging.NoOpLogger{},
		Config:             collector.DefaultConfig,
		SessionID:          core.NewID(),
		ValidationInterval: 5 * time.Minute,
		ReportInterval:     30 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Runner == nil {
		opts.Runner = experiment.NewInMemoryRunner()
	}

	shared := func(o *collector.Options) {
		o.Store = opts.Store
		o.Config = opts.Config
		o.Logger = opts.Logger
		o.SessionID = opts.SessionID
	}

	return &Orchestrator{
		store:              opts.Store,
		runner:             opts.Runner,
		logger:             opts.Logger,
		sessionID:          opts.SessionID,
		contextLoad:        contextload.New(shared),
		coord:              coordination.New(shared),
		handoffs:           handoff.New(shared),
		validationInterval: opts.ValidationInterval,
		reportInterval:     opts.ReportInterval,
		autoExperiments:    opts.AutoExperiments,
		experimentDefs:     opts.ExperimentDefs,
		done:               make(chan struct{}),
	}
}

// SessionID returns the session identifier assigned at construction.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// ContextLoad returns the owned context loading collector.
func (o *Orchestrator) ContextLoad() *contextload.Collector { return o.contextLoad }

// Coordination returns the owned coordination collector.
func (o *Orchestrator) Coordination() *coordination.Collector { return o.coord }

// Handoffs returns the owned handoff quality collector.
func (o *Orchestrator) Handoffs() *handoff.Collector { return o.handoffs }

// Runner returns the experiment harness.
func (o *Orchestrator) Runner() core.ExperimentRunner { return o.runner }

// Subscribe registers a notification handler on the orchestrator. Collector
// notifications are republished here, so one subscription observes the whole
// system.
func (o *Orchestrator) Subscribe(h core.NotificationHandler) { o.notifier.Subscribe(h) }

// Initialize initializes every owned collector, wires their notifications
// into the orchestrator's notifier, optionally seeds default experiments and
// starts the validation and reporting timers. Idempotent.
func (o *Orchestrator) Initialize() error {
	o.mu.Lock()
	if o.initialized || o.closed {
		o.mu.Unlock()
		return nil
	}
	o.initialized = true
	o.mu.Unlock()

	for _, c := range o.collectors() {
		c.Subscribe(o.notifier.Publish)
		if err := c.Initialize(); err != nil {
			return fmt.Errorf("initialize %s collector: %w", c.Name(), err)
		}
	}

	if o.autoExperiments {
		defs := o.experimentDefs
		if len(defs) == 0 {
			defs = experiment.DefaultDefinitions()
		}
		if _, err := experiment.Seed(o.runner, defs); err != nil {
			return fmt.Errorf("seed experiments: %w", err)
		}
		o.logger.Info("seeded experiments", "count", len(defs))
	}

	o.wg.Add(1)
	go o.run()

	o.logger.Info("research orchestrator initialized", "session_id", o.sessionID)
	return nil
}

// engines abstracts the shared surface of the three domain collectors.
type engine interface {
	Name() string
	Initialize() error
	Shutdown(ctx context.Context) error
	Subscribe(h core.NotificationHandler)
	Aggregate(tr core.TimeRange) (core.Aggregation, error)
}

func (o *Orchestrator) collectors() []engine {
	return []engine{o.contextLoad, o.coord, o.handoffs}
}

// Recording passthroughs. Producers only ever talk to the orchestrator.

// RecordContextLoad records a context load event.
func (o *Orchestrator) RecordContextLoad(l contextload.Load) bool { return o.contextLoad.RecordLoad(l) }

// RecordContextUnload records a context unload event.
func (o *Orchestrator) RecordContextUnload(u contextload.Unload) bool {
	return o.contextLoad.RecordUnload(u)
}

// RecordRoutingRequest records a routing request.
func (o *Orchestrator) RecordRoutingRequest(r coordination.RoutingRequest) bool {
	return o.coord.RecordRoutingRequest(r)
}

// RecordRoutingCompletion records a routing completion.
func (o *Orchestrator) RecordRoutingCompletion(r coordination.RoutingCompletion) bool {
	return o.coord.RecordRoutingCompletion(r)
}

// RecordViolation records a coordination compliance violation.
func (o *Orchestrator) RecordViolation(v coordination.Violation) bool {
	return o.coord.RecordViolation(v)
}

// RecordHandoffStart records a handoff start event.
func (o *Orchestrator) RecordHandoffStart(s handoff.Start) bool { return o.handoffs.RecordStart(s) }

// RecordHandoffCompletion records a handoff completion event.
func (o *Orchestrator) RecordHandoffCompletion(c handoff.Completion) bool {
	return o.handoffs.RecordCompletion(c)
}

// RecordTestExecution records a handoff test execution event.
func (o *Orchestrator) RecordTestExecution(te handoff.TestExecution) bool {
	return o.handoffs.RecordTestExecution(te)
}

// RecordContractValidation records a handoff contract validation event.
func (o *Orchestrator) RecordContractValidation(cv handoff.ContractValidation) bool {
	return o.handoffs.RecordContractValidation(cv)
}

// PerformPeriodicValidation aggregates every collector over the full range
// and merges the hypothesis results. Each run is independent: a hypothesis
// validated on an earlier run can read as not validated later when the data
// drifted. A research-complete notification fires exactly on runs where all
// hypotheses validate simultaneously.
func (o *Orchestrator) PerformPeriodicValidation() (Progress, error) {
	progress := Progress{
		Timestamp:   time.Now().UTC(),
		Results:     make(map[string]core.HypothesisResult),
		SampleSizes: make(map[string]int),
	}

	var confidences []float64
	for _, c := range o.collectors() {
		agg, err := c.Aggregate(core.TimeRange{})
		if err != nil {
			return progress, fmt.Errorf("aggregate %s collector: %w", c.Name(), err)
		}
		for hypothesis, result := range agg.Validation {
			progress.Results[hypothesis] = result
			progress.SampleSizes[hypothesis] = agg.SampleSize
			confidences = append(confidences, result.Confidence)
			if result.Validated {
				progress.Validated++
			}
			o.logger.Info("hypothesis validated",
				"hypothesis", hypothesis, "validated", result.Validated, "confidence", result.Confidence)
		}
	}

	progress.Progress = core.Ratio(float64(progress.Validated), float64(len(core.Hypotheses())))
	progress.OverallConfidence = core.Mean(confidences)

	if progress.Complete() {
		o.notifier.Publish(core.Notification{
			Type:      core.NotificationResearchComplete,
			Collector: "research",
			Payload: map[string]any{
				"overall_confidence": progress.OverallConfidence,
			},
		})
	}
	return progress, nil
}

func (o *Orchestrator) run() {
	defer o.wg.Done()

	validation := time.NewTicker(o.validationInterval)
	defer validation.Stop()
	report := time.NewTicker(o.reportInterval)
	defer report.Stop()

	for {
		select {
		case <-o.done:
			return
		case <-validation.C:
			if _, err := o.PerformPeriodicValidation(); err != nil {
				o.timerError("validation", err)
			}
		case <-report.C:
			if _, err := o.GenerateResearchReport(); err != nil {
				o.timerError("report", err)
			}
		}
	}
}

func (o *Orchestrator) timerError(timer string, err error) {
	o.logger.Error("timer callback failed", "timer", timer, "error", err)
	o.notifier.Publish(core.Notification{
		Type:      core.NotificationTimerError,
		Collector: "research",
		Payload:   map[string]any{"timer": timer, "error": err.Error()},
	})
}

// Shutdown stops the timers, writes one final report and shuts down the
// collectors and the harness in turn. Safe to call once; later calls are
// no-ops.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.closed || !o.initialized {
		o.closed = true
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	close(o.done)
	o.wg.Wait()

	if _, err := o.GenerateResearchReport(); err != nil {
		o.logger.Error("final report generation failed", "error", err)
	}

	var firstErr error
	for _, c := range o.collectors() {
		if err := c.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := o.runner.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	o.logger.Info("research orchestrator shut down", "session_id", o.sessionID)
	return firstErr
}
