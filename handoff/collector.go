package handoff

import (
	"fmt"
	"sync"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/core"
)

// Name scopes this collector's persisted artifacts.
const Name = "handoff"

// Event types recorded by this collector.
const (
	EventStart              = "handoff_start"
	EventCompletion         = "handoff_completion"
	EventTestExecution      = "handoff_test_execution"
	EventContractValidation = "handoff_contract_validation"
)

// Start describes the beginning of one handoff.
type Start struct {
	// HandoffID correlates the start with its completion. Required.
	HandoffID string

	// From identifies the handing-over agent. Required.
	From string

	// To identifies the receiving agent. Required.
	To string

	// Contract names the contract governing the handoff, if any.
	Contract string

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// Completion describes the end of one handoff.
type Completion struct {
	// HandoffID correlates the completion with its start. Required.
	HandoffID string

	// From identifies the handing-over agent. Required.
	From string

	// To identifies the receiving agent. Required.
	To string

	// Success reports whether the handoff completed successfully.
	Success bool

	// DurationMs is the handoff duration in milliseconds.
	DurationMs float64

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// TestExecution describes a test run associated with a handoff.
type TestExecution struct {
	// HandoffID correlates the run with its handoff. Required.
	HandoffID string

	// Passed, Failed and Skipped are the test counts of the run.
	Passed  int
	Failed  int
	Skipped int

	// Coverage is the measured coverage ratio in [0,1].
	Coverage float64

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// ContractValidation describes a contract check on a handoff payload.
type ContractValidation struct {
	// HandoffID correlates the check with its handoff. Required.
	HandoffID string

	// Violations is the number of contract violations found.
	Violations int

	// AutoFixed reports whether the violations were repaired automatically.
	AutoFixed bool

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// pairStats is the in-memory per-agent-pair rollup.
type pairStats struct {
	completed int
	succeeded int
	totalMs   float64
}

// PairSummary is the exported view of one agent pair's rollup.
type PairSummary struct {
	Pair          string  `json:"pair"`
	Completed     int     `json:"completed"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// Collector measures handoff quality. It wraps the base engine and acts as
// its own aggregation strategy.
//
// The per-pair rollup is an in-memory cache for fast-path queries; the
// persisted metric stream remains the source of truth and the cache is never
// read back from disk.
type Collector struct {
	*collector.Engine

	mu    sync.Mutex
	pairs map[string]*pairStats
}

// New constructs the handoff quality collector.
func New(optFns ...func(o *collector.Options)) *Collector {
	c := &Collector{pairs: make(map[string]*pairStats)}
	c.Engine = collector.New(Name, append(optFns, func(o *collector.Options) {
		o.Strategy = c
	})...)
	return c
}

// RecordStart stores one handoff start event.
func (c *Collector) RecordStart(s Start) bool {
	if s.HandoffID == "" || s.From == "" || s.To == "" {
		return false
	}
	data := map[string]any{
		"handoff_id": s.HandoffID,
		"from":       s.From,
		"to":         s.To,
		"contract":   s.Contract,
	}
	for k, v := range s.Extra {
		data[k] = v
	}
	return c.Store(EventStart, data, nil)
}

// RecordCompletion stores one handoff completion event and updates the
// per-pair rollup.
func (c *Collector) RecordCompletion(comp Completion) bool {
	if comp.HandoffID == "" || comp.From == "" || comp.To == "" || comp.DurationMs < 0 {
		return false
	}
	data := map[string]any{
		"handoff_id":  comp.HandoffID,
		"from":        comp.From,
		"to":          comp.To,
		"success":     comp.Success,
		"duration_ms": comp.DurationMs,
	}
	for k, v := range comp.Extra {
		data[k] = v
	}
	if !c.Store(EventCompletion, data, nil) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	pair := comp.From + "->" + comp.To
	ps, ok := c.pairs[pair]
	if !ok {
		ps = &pairStats{}
		c.pairs[pair] = ps
	}
	ps.completed++
	ps.totalMs += comp.DurationMs
	if comp.Success {
		ps.succeeded++
	}
	return true
}

// RecordTestExecution stores one test execution event.
func (c *Collector) RecordTestExecution(te TestExecution) bool {
	if te.HandoffID == "" || te.Passed < 0 || te.Failed < 0 || te.Skipped < 0 {
		return false
	}
	data := map[string]any{
		"handoff_id": te.HandoffID,
		"passed":     te.Passed,
		"failed":     te.Failed,
		"skipped":    te.Skipped,
		"coverage":   te.Coverage,
	}
	for k, v := range te.Extra {
		data[k] = v
	}
	return c.Store(EventTestExecution, data, nil)
}

// RecordContractValidation stores one contract validation event.
func (c *Collector) RecordContractValidation(cv ContractValidation) bool {
	if cv.HandoffID == "" || cv.Violations < 0 {
		return false
	}
	data := map[string]any{
		"handoff_id": cv.HandoffID,
		"violations": cv.Violations,
		"auto_fixed": cv.AutoFixed,
	}
	for k, v := range cv.Extra {
		data[k] = v
	}
	return c.Store(EventContractValidation, data, nil)
}

// MostReliablePair returns the agent pair with the highest success rate from
// the in-memory rollup, ties broken by completion count.
func (c *Collector) MostReliablePair() (PairSummary, bool) {
	return c.pickPair(func(best, candidate PairSummary) bool {
		if candidate.SuccessRate != best.SuccessRate {
			return candidate.SuccessRate > best.SuccessRate
		}
		return candidate.Completed > best.Completed
	})
}

// MostProblematicPair returns the agent pair with the lowest success rate
// from the in-memory rollup, ties broken by completion count.
func (c *Collector) MostProblematicPair() (PairSummary, bool) {
	return c.pickPair(func(best, candidate PairSummary) bool {
		if candidate.SuccessRate != best.SuccessRate {
			return candidate.SuccessRate < best.SuccessRate
		}
		return candidate.Completed > best.Completed
	})
}

func (c *Collector) pickPair(better func(best, candidate PairSummary) bool) (PairSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best PairSummary
	found := false
	for pair, ps := range c.pairs {
		candidate := PairSummary{
			Pair:          pair,
			Completed:     ps.completed,
			SuccessRate:   core.Ratio(float64(ps.succeeded), float64(ps.completed)),
			AvgDurationMs: core.Ratio(ps.totalMs, float64(ps.completed)),
		}
		if !found || better(best, candidate) {
			best = candidate
			found = true
		}
	}
	return best, found
}

// Hypothesis implements core.Strategy.
func (c *Collector) Hypothesis() string { return core.HypothesisContractHandoffs }

type handoffFigures struct {
	starts      int
	completions int
	successes   int
	durations   []float64
	successSeq  []float64

	testRuns  int
	passed    int
	failed    int
	skipped   int
	coverages []float64

	contractChecks     int
	contractViolations int
	autoFixed          int

	pairs map[string]*pairStats
}

func extractHandoffs(metrics []core.Metric) handoffFigures {
	f := handoffFigures{pairs: make(map[string]*pairStats)}
	for _, m := range metrics {
		switch m.EventType {
		case EventStart:
			f.starts++
		case EventCompletion:
			f.completions++
			success, _ := collector.Boolean(m.Data["success"])
			duration, _ := collector.Number(m.Data["duration_ms"])
			f.durations = append(f.durations, duration)
			if success {
				f.successes++
				f.successSeq = append(f.successSeq, 1)
			} else {
				f.successSeq = append(f.successSeq, 0)
			}

			from, _ := collector.Text(m.Data["from"])
			to, _ := collector.Text(m.Data["to"])
			pair := from + "->" + to
			ps, ok := f.pairs[pair]
			if !ok {
				ps = &pairStats{}
				f.pairs[pair] = ps
			}
			ps.completed++
			ps.totalMs += duration
			if success {
				ps.succeeded++
			}
		case EventTestExecution:
			f.testRuns++
			passed, _ := collector.Number(m.Data["passed"])
			failed, _ := collector.Number(m.Data["failed"])
			skipped, _ := collector.Number(m.Data["skipped"])
			coverage, _ := collector.Number(m.Data["coverage"])
			f.passed += int(passed)
			f.failed += int(failed)
			f.skipped += int(skipped)
			f.coverages = append(f.coverages, coverage)
		case EventContractValidation:
			f.contractChecks++
			violations, _ := collector.Number(m.Data["violations"])
			f.contractViolations += int(violations)
			if fixed, _ := collector.Boolean(m.Data["auto_fixed"]); fixed {
				f.autoFixed++
			}
		}
	}
	return f
}

func (f handoffFigures) successRate() float64 {
	return core.Ratio(float64(f.successes), float64(f.completions))
}

// PerformAggregation implements core.Strategy.
func (c *Collector) PerformAggregation(metrics []core.Metric) map[string]any {
	f := extractHandoffs(metrics)
	return map[string]any{
		"starts":              f.starts,
		"completions":         f.completions,
		"success_rate":        f.successRate(),
		"avg_duration_ms":     core.Mean(f.durations),
		"test_runs":           f.testRuns,
		"tests_passed":        f.passed,
		"tests_failed":        f.failed,
		"tests_skipped":       f.skipped,
		"avg_test_coverage":   core.Mean(f.coverages),
		"contract_checks":     f.contractChecks,
		"contract_violations": f.contractViolations,
		"auto_fixed":          f.autoFixed,
	}
}

// PerformAnalysis implements core.Strategy. Pair rankings here come from the
// metric stream, not the in-memory cache, so historical aggregations stay
// reproducible.
func (c *Collector) PerformAnalysis(metrics []core.Metric, aggregated map[string]any) map[string]any {
	f := extractHandoffs(metrics)

	analysis := map[string]any{
		"success_trend":  core.ClassifyTrend(f.successSeq, false),
		"duration_trend": core.ClassifyTrendThirds(f.durations, true),
	}

	if reliable, problematic, ok := rankPairs(f.pairs); ok {
		analysis["most_reliable_pair"] = reliable
		analysis["most_problematic_pair"] = problematic
	}
	return analysis
}

func rankPairs(pairs map[string]*pairStats) (reliable, problematic PairSummary, ok bool) {
	for pair, ps := range pairs {
		candidate := PairSummary{
			Pair:          pair,
			Completed:     ps.completed,
			SuccessRate:   core.Ratio(float64(ps.succeeded), float64(ps.completed)),
			AvgDurationMs: core.Ratio(ps.totalMs, float64(ps.completed)),
		}
		if !ok {
			reliable, problematic, ok = candidate, candidate, true
			continue
		}
		if candidate.SuccessRate > reliable.SuccessRate ||
			(candidate.SuccessRate == reliable.SuccessRate && candidate.Completed > reliable.Completed) {
			reliable = candidate
		}
		if candidate.SuccessRate < problematic.SuccessRate ||
			(candidate.SuccessRate == problematic.SuccessRate && candidate.Completed > problematic.Completed) {
			problematic = candidate
		}
	}
	return reliable, problematic, ok
}

// ValidateHypotheses implements core.Strategy. The hypothesis validates when
// the handoff success rate and the average test coverage meet their targets
// and the sample size clears the confidence threshold.
func (c *Collector) ValidateHypotheses(metrics []core.Metric, aggregated, analysis map[string]any, baseline core.Baseline, targets core.Targets) map[string]core.HypothesisResult {
	f := extractHandoffs(metrics)
	successRate := f.successRate()
	coverage := core.Mean(f.coverages)
	confidence := core.Confidence(f.completions)

	r := core.NewResult(core.HypothesisContractHandoffs, confidence)
	r.Metrics = map[string]float64{
		"success_rate":          successRate,
		"avg_test_coverage":     coverage,
		"baseline_success_rate": baseline.Measurements.Handoffs.SuccessRate,
		"baseline_coverage":     baseline.Measurements.Handoffs.TestCoverage,
		"contract_violations":   float64(f.contractViolations),
	}

	r.AddCriterion("success_rate", successRate, targets.HandoffSuccessRate,
		successRate >= targets.HandoffSuccessRate,
		fmt.Sprintf("handoff success rate %.1f%% meets the %.1f%% target",
			successRate*100, targets.HandoffSuccessRate*100))
	r.AddCriterion("test_coverage", coverage, targets.TestCoverage,
		coverage >= targets.TestCoverage,
		fmt.Sprintf("average test coverage %.1f%% meets the %.1f%% target",
			coverage*100, targets.TestCoverage*100))
	r.AddCriterion("confidence", confidence, targets.ConfidenceThreshold,
		confidence >= targets.ConfidenceThreshold,
		fmt.Sprintf("confidence %.2f from %d completed handoffs meets threshold %.2f",
			confidence, f.completions, targets.ConfidenceThreshold))
	r.Finalize()

	return map[string]core.HypothesisResult{r.Hypothesis: *r}
}
