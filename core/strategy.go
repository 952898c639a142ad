package core

// Strategy supplies the domain specific parts of an aggregation run. The
// collector engine owns buffering, persistence and scheduling; each domain
// collector contributes one Strategy implementation instead of subclassing
// the engine, keeping the three domains independently testable.
//
// The engine drives the hooks in order: PerformAggregation over the
// retrieved metrics, PerformAnalysis over metrics plus the aggregated
// figures, then ValidateHypotheses over everything plus the baseline and
// configured targets.
type Strategy interface {
	// Hypothesis returns the identifier of the hypothesis this strategy
	// validates.
	Hypothesis() string

	// PerformAggregation derives domain counts and ratios from the metric
	// set. The engine merges the returned map into the aggregation's
	// Aggregated block alongside its generic event-type counts.
	PerformAggregation(metrics []Metric) map[string]any

	// PerformAnalysis derives trends, projections and structural analyses.
	PerformAnalysis(metrics []Metric, aggregated map[string]any) map[string]any

	// ValidateHypotheses evaluates the domain criteria against targets and
	// baseline, returning one result per hypothesis (typically exactly one).
	ValidateHypotheses(metrics []Metric, aggregated, analysis map[string]any, baseline Baseline, targets Targets) map[string]HypothesisResult
}
