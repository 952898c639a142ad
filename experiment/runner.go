package experiment

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

// RunnerOptions configures an InMemoryRunner.
type RunnerOptions struct {
	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// InMemoryRunner is a process-local core.ExperimentRunner. Observations live
// in memory for the lifetime of the runner; comparison results are derived
// on demand.
type InMemoryRunner struct {
	logger logging.Logger

	mu           sync.Mutex
	experiments  map[string]*core.Experiment
	observations map[string]map[string][]float64 // experiment id -> variant -> values
	order        []string                        // creation order for stable Results
}

// NewInMemoryRunner creates an empty experiment runner.
func NewInMemoryRunner(optFns ...func(o *RunnerOptions)) *InMemoryRunner {
	opts := RunnerOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryRunner{
		logger:       opts.Logger,
		experiments:  make(map[string]*core.Experiment),
		observations: make(map[string]map[string][]float64),
	}
}

// Create registers a new experiment in the created state.
func (r *InMemoryRunner) Create(name, hypothesis, control, treatment string) (core.Experiment, error) {
	if name == "" || control == "" || treatment == "" {
		return core.Experiment{}, fmt.Errorf("experiment name, control and treatment are required")
	}

	exp := core.Experiment{
		ID:         core.NewID(),
		Name:       name,
		Hypothesis: hypothesis,
		Control:    control,
		Treatment:  treatment,
		Status:     core.ExperimentCreated,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.experiments[exp.ID] = &exp
	r.observations[exp.ID] = map[string][]float64{control: nil, treatment: nil}
	r.order = append(r.order, exp.ID)

	r.logger.Debug("experiment created", "experiment", name, "hypothesis", hypothesis)
	return exp, nil
}

// Start transitions the experiment into the running state.
func (r *InMemoryRunner) Start(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiments[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrExperimentNotFound, id)
	}
	if exp.Status == core.ExperimentStopped {
		return fmt.Errorf("experiment %q already stopped", exp.Name)
	}
	exp.Status = core.ExperimentRunning
	if exp.StartedAt.IsZero() {
		exp.StartedAt = time.Now().UTC()
	}
	return nil
}

// Stop closes the experiment for observations. Stopping twice is a no-op.
func (r *InMemoryRunner) Stop(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiments[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrExperimentNotFound, id)
	}
	if exp.Status == core.ExperimentStopped {
		return nil
	}
	exp.Status = core.ExperimentStopped
	exp.StoppedAt = time.Now().UTC()
	return nil
}

// RecordObservation adds one measurement for a variant. Only running
// experiments accept observations, and the variant must be the experiment's
// control or treatment.
func (r *InMemoryRunner) RecordObservation(id, variant string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiments[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrExperimentNotFound, id)
	}
	if exp.Status != core.ExperimentRunning {
		return fmt.Errorf("experiment %q is not running", exp.Name)
	}
	if variant != exp.Control && variant != exp.Treatment {
		return fmt.Errorf("unknown variant %q for experiment %q", variant, exp.Name)
	}
	r.observations[id][variant] = append(r.observations[id][variant], value)
	return nil
}

// Experiments returns every registered experiment in creation order.
func (r *InMemoryRunner) Experiments() []core.Experiment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Experiment, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.experiments[id])
	}
	return out
}

// Results derives the variant comparison for every experiment, in creation
// order. Confidence follows the shared sample-size heuristic using the
// smaller variant's sample count.
func (r *InMemoryRunner) Results() []core.ExperimentResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]core.ExperimentResult, 0, len(r.order))
	for _, id := range r.order {
		exp := r.experiments[id]
		control := variantResult(exp.Control, r.observations[id][exp.Control])
		treatment := variantResult(exp.Treatment, r.observations[id][exp.Treatment])

		samples := control.Samples
		if treatment.Samples < samples {
			samples = treatment.Samples
		}

		delta := 0.0
		if control.Mean != 0 {
			delta = (treatment.Mean - control.Mean) / control.Mean
		}

		out = append(out, core.ExperimentResult{
			ExperimentID: exp.ID,
			Name:         exp.Name,
			Hypothesis:   exp.Hypothesis,
			Control:      control,
			Treatment:    treatment,
			Delta:        delta,
			Confidence:   core.Confidence(samples),
		})
	}
	return out
}

func variantResult(name string, values []float64) core.VariantResult {
	return core.VariantResult{
		Variant: name,
		Samples: len(values),
		Mean:    core.Mean(values),
	}
}

// Close stops every running experiment.
func (r *InMemoryRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, exp := range r.experiments {
		if exp.Status == core.ExperimentRunning {
			exp.Status = core.ExperimentStopped
			exp.StoppedAt = time.Now().UTC()
		}
	}
	return nil
}
