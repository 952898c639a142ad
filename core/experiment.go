package core

import "time"

// ExperimentStatus tracks the lifecycle of an A/B experiment.
type ExperimentStatus string

const (
	// ExperimentCreated means the experiment exists but accepts no
	// observations yet.
	ExperimentCreated ExperimentStatus = "created"
	// ExperimentRunning means observations are accepted.
	ExperimentRunning ExperimentStatus = "running"
	// ExperimentStopped means the experiment is closed for observations.
	ExperimentStopped ExperimentStatus = "stopped"
)

// Experiment describes one A/B comparison attached to a hypothesis.
type Experiment struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Hypothesis string           `json:"hypothesis"`
	Control    string           `json:"control"`
	Treatment  string           `json:"treatment"`
	Status     ExperimentStatus `json:"status"`
	StartedAt  time.Time        `json:"started_at,omitempty"`
	StoppedAt  time.Time        `json:"stopped_at,omitempty"`
}

// VariantResult summarizes the observations recorded for one variant.
type VariantResult struct {
	Variant string  `json:"variant"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
}

// ExperimentResult compares the two variants of an experiment. Delta is the
// relative change of the treatment mean against the control mean, zero when
// the control mean is zero.
type ExperimentResult struct {
	ExperimentID string        `json:"experiment_id"`
	Name         string        `json:"name"`
	Hypothesis   string        `json:"hypothesis"`
	Control      VariantResult `json:"control"`
	Treatment    VariantResult `json:"treatment"`
	Delta        float64       `json:"delta"`
	Confidence   float64       `json:"confidence"`
}

// ExperimentRunner is the opaque A/B harness consumed by the research
// orchestrator. The orchestrator creates, starts and stops experiments and
// pulls comparison results into its reports; the runner's internals are out
// of the orchestrator's scope.
type ExperimentRunner interface {
	Create(name, hypothesis, control, treatment string) (Experiment, error)
	Start(id string) error
	Stop(id string) error
	RecordObservation(id, variant string, value float64) error
	Results() []ExperimentResult
	Close() error
}
