package coordination

import (
	"fmt"
	"sync"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/core"
)

// Name scopes this collector's persisted artifacts.
const Name = "coordination"

// Event types recorded by this collector.
const (
	EventRoutingRequest    = "routing_request"
	EventRoutingCompletion = "routing_completion"
	EventViolation         = "coordination_violation"
)

// SeverityDirectRoute tags auto-recorded violations for traffic that
// bypassed the hub.
const SeverityDirectRoute = "high"

// RoutingRequest describes one routed request between agents.
type RoutingRequest struct {
	// From identifies the requesting agent. Required.
	From string

	// To identifies the target agent. Required.
	To string

	// ThroughHub reports whether the request was mediated by the hub.
	// Direct requests additionally record a compliance violation.
	ThroughHub bool

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// RoutingCompletion describes the completion of a routed request.
type RoutingCompletion struct {
	// From identifies the requesting agent. Required.
	From string

	// To identifies the target agent. Required.
	To string

	// ThroughHub reports whether the completed route was hub mediated.
	ThroughHub bool

	// CoordinationMs is the time spent on routing and mediation.
	CoordinationMs float64

	// TotalMs is the end-to-end time of the operation.
	TotalMs float64

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// Violation describes a compliance violation.
type Violation struct {
	// From identifies the offending agent. Required.
	From string

	// To identifies the peer of the non-compliant exchange.
	To string

	// Severity tags how serious the violation is.
	Severity string

	// Reason describes the violation.
	Reason string

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// Collector measures hub-and-spoke routing compliance. It wraps the base
// engine and acts as its own aggregation strategy.
//
// The routing-pattern table and compliance counters are in-memory caches
// for fast-path queries; the persisted metric stream remains the source of
// truth and the caches are never read back from disk.
type Collector struct {
	*collector.Engine

	mu         sync.Mutex
	patterns   map[string]int
	routed     int
	throughHub int
}

// New constructs the coordination collector.
func New(optFns ...func(o *collector.Options)) *Collector {
	c := &Collector{patterns: make(map[string]int)}
	c.Engine = collector.New(Name, append(optFns, func(o *collector.Options) {
		o.Strategy = c
	})...)
	return c
}

// RecordRoutingRequest stores one routing request. A request that bypassed
// the hub automatically records a severity-tagged violation as well.
func (c *Collector) RecordRoutingRequest(r RoutingRequest) bool {
	if r.From == "" || r.To == "" {
		return false
	}
	data := map[string]any{
		"from":        r.From,
		"to":          r.To,
		"through_hub": r.ThroughHub,
	}
	for k, v := range r.Extra {
		data[k] = v
	}
	if !c.Store(EventRoutingRequest, data, nil) {
		return false
	}
	c.observeRoute(r.From, r.To, r.ThroughHub)

	if !r.ThroughHub {
		c.RecordViolation(Violation{
			From:     r.From,
			To:       r.To,
			Severity: SeverityDirectRoute,
			Reason:   "direct agent-to-agent request bypassed the hub",
		})
	}
	return true
}

// RecordRoutingCompletion stores one routing completion.
func (c *Collector) RecordRoutingCompletion(r RoutingCompletion) bool {
	if r.From == "" || r.To == "" || r.CoordinationMs < 0 || r.TotalMs < 0 {
		return false
	}
	data := map[string]any{
		"from":            r.From,
		"to":              r.To,
		"through_hub":     r.ThroughHub,
		"coordination_ms": r.CoordinationMs,
		"total_ms":        r.TotalMs,
	}
	for k, v := range r.Extra {
		data[k] = v
	}
	if !c.Store(EventRoutingCompletion, data, nil) {
		return false
	}
	c.observeRoute(r.From, r.To, r.ThroughHub)
	return true
}

// RecordViolation stores one compliance violation.
func (c *Collector) RecordViolation(v Violation) bool {
	if v.From == "" {
		return false
	}
	data := map[string]any{
		"from":     v.From,
		"to":       v.To,
		"severity": v.Severity,
		"reason":   v.Reason,
	}
	for k, v := range v.Extra {
		data[k] = v
	}
	return c.Store(EventViolation, data, nil)
}

func (c *Collector) observeRoute(from, to string, throughHub bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns[from+"->"+to]++
	c.routed++
	if throughHub {
		c.throughHub++
	}
}

// RoutingCompliance returns the hub-mediated share of routing events seen
// this session, from the in-memory counters.
func (c *Collector) RoutingCompliance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.Ratio(float64(c.throughHub), float64(c.routed))
}

// RoutingPatterns returns a copy of the from->to frequency table built this
// session.
func (c *Collector) RoutingPatterns() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make(map[string]int, len(c.patterns))
	for k, v := range c.patterns {
		cp[k] = v
	}
	return cp
}

// Hypothesis implements core.Strategy.
func (c *Collector) Hypothesis() string { return core.HypothesisHubAndSpoke }

type routingFigures struct {
	requests    int
	completions int
	violations  int

	routed     int
	throughHub int

	coordinationMs []float64
	totalMs        []float64
	overheads      []float64
}

func extractRouting(metrics []core.Metric) routingFigures {
	var f routingFigures
	for _, m := range metrics {
		switch m.EventType {
		case EventRoutingRequest:
			f.requests++
		case EventRoutingCompletion:
			f.completions++
		case EventViolation:
			f.violations++
			continue
		default:
			continue
		}

		f.routed++
		if hub, _ := collector.Boolean(m.Data["through_hub"]); hub {
			f.throughHub++
		}
		if m.EventType == EventRoutingCompletion {
			coord, _ := collector.Number(m.Data["coordination_ms"])
			total, _ := collector.Number(m.Data["total_ms"])
			f.coordinationMs = append(f.coordinationMs, coord)
			f.totalMs = append(f.totalMs, total)
			f.overheads = append(f.overheads, core.Ratio(coord, total))
		}
	}
	return f
}

func (f routingFigures) compliance() float64 {
	return core.Ratio(float64(f.throughHub), float64(f.routed))
}

func (f routingFigures) overhead() float64 {
	var coord, total float64
	for i := range f.coordinationMs {
		coord += f.coordinationMs[i]
		total += f.totalMs[i]
	}
	return core.Ratio(coord, total)
}

// PerformAggregation implements core.Strategy.
func (c *Collector) PerformAggregation(metrics []core.Metric) map[string]any {
	f := extractRouting(metrics)
	return map[string]any{
		"routing_requests":      f.requests,
		"routing_completions":   f.completions,
		"violations":            f.violations,
		"routing_compliance":    f.compliance(),
		"coordination_overhead": f.overhead(),
		"avg_total_ms":          core.Mean(f.totalMs),
	}
}

// PerformAnalysis implements core.Strategy. The communication graph is
// rebuilt from the metric stream on every run.
func (c *Collector) PerformAnalysis(metrics []core.Metric, aggregated map[string]any) map[string]any {
	f := extractRouting(metrics)
	g := buildGraph(metrics)
	return map[string]any{
		"graph":          g.summary(),
		"overhead_trend": core.ClassifyTrend(f.overheads, true),
	}
}

// ValidateHypotheses implements core.Strategy. The hypothesis validates when
// routing compliance meets the target, coordination overhead stays under the
// cap and the sample size clears the confidence threshold.
func (c *Collector) ValidateHypotheses(metrics []core.Metric, aggregated, analysis map[string]any, baseline core.Baseline, targets core.Targets) map[string]core.HypothesisResult {
	f := extractRouting(metrics)
	compliance := f.compliance()
	overhead := f.overhead()
	confidence := core.Confidence(f.routed)

	r := core.NewResult(core.HypothesisHubAndSpoke, confidence)
	r.Metrics = map[string]float64{
		"routing_compliance":    compliance,
		"coordination_overhead": overhead,
		"baseline_compliance":   baseline.Measurements.Coordination.RoutingCompliance,
		"baseline_overhead":     baseline.Measurements.Coordination.CoordinationOverhead,
		"violations":            float64(f.violations),
	}

	r.AddCriterion("routing_compliance", compliance, targets.RoutingCompliance,
		compliance >= targets.RoutingCompliance,
		fmt.Sprintf("routing compliance %.1f%% meets the %.1f%% target",
			compliance*100, targets.RoutingCompliance*100))
	r.AddCriterion("coordination_overhead", overhead, targets.MaxCoordinationOverhead,
		overhead <= targets.MaxCoordinationOverhead,
		fmt.Sprintf("coordination overhead %.1f%% stays under the %.1f%% cap",
			overhead*100, targets.MaxCoordinationOverhead*100))
	r.AddCriterion("confidence", confidence, targets.ConfidenceThreshold,
		confidence >= targets.ConfidenceThreshold,
		fmt.Sprintf("confidence %.2f from %d routing events meets threshold %.2f",
			confidence, f.routed, targets.ConfidenceThreshold))
	r.Finalize()

	return map[string]core.HypothesisResult{r.Hypothesis: *r}
}
