package core

// Hypothesis identifiers. Each domain collector owns exactly one.
const (
	// HypothesisContextEfficiency claims on-demand context loading reduces
	// average context size versus preloading.
	HypothesisContextEfficiency = "context_loading_efficiency"

	// HypothesisHubAndSpoke claims centralized routing keeps coordination
	// overhead low while agents stay compliant with hub mediation.
	HypothesisHubAndSpoke = "hub_and_spoke_coordination"

	// HypothesisContractHandoffs claims contract-first handoffs raise
	// success rate and test coverage.
	HypothesisContractHandoffs = "contract_driven_handoffs"
)

// Hypotheses returns all hypothesis identifiers in report order.
func Hypotheses() []string {
	return []string{
		HypothesisContextEfficiency,
		HypothesisHubAndSpoke,
		HypothesisContractHandoffs,
	}
}

// Criterion is a single numeric gate contributing to hypothesis validation.
type Criterion struct {
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
	Satisfied bool    `json:"satisfied"`
}

// HypothesisResult is the outcome of one validation run for one hypothesis.
// It is derived, never persisted on its own: it travels embedded in an
// Aggregation or a research report. Validated is the AND of every criterion;
// Evidence holds one human-readable line per satisfied criterion, in the
// order the criteria were evaluated.
type HypothesisResult struct {
	Hypothesis string               `json:"hypothesis"`
	Validated  bool                 `json:"validated"`
	Confidence float64              `json:"confidence"`
	Evidence   []string             `json:"evidence"`
	Metrics    map[string]float64   `json:"metrics"`
	Criteria   map[string]Criterion `json:"criteria"`
}

// EmptyResult is the well-defined zero outcome used when no data is
// available: not validated, zero confidence, no evidence.
func EmptyResult(hypothesis string) HypothesisResult {
	return HypothesisResult{
		Hypothesis: hypothesis,
		Confidence: 0,
		Evidence:   []string{},
		Metrics:    map[string]float64{},
		Criteria:   map[string]Criterion{},
	}
}

// NewResult starts a result ready to accumulate criteria.
func NewResult(hypothesis string, confidence float64) *HypothesisResult {
	r := EmptyResult(hypothesis)
	r.Confidence = confidence
	return &r
}

// AddCriterion records one numeric gate. Evidence is appended only when the
// criterion is satisfied.
func (r *HypothesisResult) AddCriterion(name string, actual, threshold float64, satisfied bool, evidence string) {
	r.Criteria[name] = Criterion{Actual: actual, Threshold: threshold, Satisfied: satisfied}
	if satisfied {
		r.Evidence = append(r.Evidence, evidence)
	}
}

// Finalize computes Validated as the AND of every recorded criterion.
// A result with no criteria is never validated.
func (r *HypothesisResult) Finalize() {
	if len(r.Criteria) == 0 {
		r.Validated = false
		return
	}
	for _, c := range r.Criteria {
		if !c.Satisfied {
			r.Validated = false
			return
		}
	}
	r.Validated = true
}

// Targets holds the configured validation thresholds shared by all
// strategies. Values are ratios in [0,1].
type Targets struct {
	// ContextReduction is the minimum relative context-size reduction
	// against baseline for the context hypothesis.
	ContextReduction float64 `json:"context_reduction"`

	// RoutingCompliance is the minimum share of hub-mediated routing events.
	RoutingCompliance float64 `json:"routing_compliance"`

	// MaxCoordinationOverhead caps coordination time / total time.
	MaxCoordinationOverhead float64 `json:"max_coordination_overhead"`

	// HandoffSuccessRate is the minimum completed-handoff success share.
	HandoffSuccessRate float64 `json:"handoff_success_rate"`

	// TestCoverage is the minimum average handoff test coverage.
	TestCoverage float64 `json:"test_coverage"`

	// ConfidenceThreshold gates every hypothesis on sample-size confidence.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// DefaultTargets returns the reference research thresholds.
func DefaultTargets() Targets {
	return Targets{
		ContextReduction:        0.30,
		RoutingCompliance:       0.90,
		MaxCoordinationOverhead: 0.15,
		HandoffSuccessRate:      0.90,
		TestCoverage:            0.80,
		ConfidenceThreshold:     0.70,
	}
}
