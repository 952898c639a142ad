package contextload

import (
	"fmt"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/core"
)

// Name scopes this collector's persisted artifacts.
const Name = "context"

// Event types recorded by this collector.
const (
	EventLoad   = "context_load"
	EventUnload = "context_unload"
)

// Load describes one context load operation.
type Load struct {
	// AgentID identifies the agent the context was loaded for. Required.
	AgentID string

	// Source names where the content came from (file, index, cache).
	Source string

	// ContextSize is the loaded size in tokens.
	ContextSize float64

	// LoadTimeMs is the wall time of the load in milliseconds.
	LoadTimeMs float64

	// CacheHit reports whether the load was served from cache.
	CacheHit bool

	// Relevance scores how relevant the loaded content was, in [0,1].
	Relevance float64

	// OnDemand distinguishes on-demand loads from preloaded ones.
	OnDemand bool

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// Unload describes one context unload operation.
type Unload struct {
	// AgentID identifies the agent the context was unloaded from. Required.
	AgentID string

	// ContextSize is the released size in tokens.
	ContextSize float64

	// Reason names why the context was dropped (task complete, eviction).
	Reason string

	// Extra carries forward-compatible extension fields.
	Extra map[string]any
}

// Collector measures context loading efficiency. It wraps the base engine
// and acts as its own aggregation strategy.
type Collector struct {
	*collector.Engine
}

// New constructs the context loading collector. Engine options apply as
// usual; the strategy is always this collector.
func New(optFns ...func(o *collector.Options)) *Collector {
	c := &Collector{}
	c.Engine = collector.New(Name, append(optFns, func(o *collector.Options) {
		o.Strategy = c
	})...)
	return c
}

// RecordLoad stores one context load event. Returns false for payloads
// missing required fields or for negative measurements.
func (c *Collector) RecordLoad(l Load) bool {
	if l.AgentID == "" || l.ContextSize < 0 || l.LoadTimeMs < 0 {
		return false
	}
	data := map[string]any{
		"agent_id":     l.AgentID,
		"source":       l.Source,
		"context_size": l.ContextSize,
		"load_time_ms": l.LoadTimeMs,
		"cache_hit":    l.CacheHit,
		"relevance":    l.Relevance,
		"on_demand":    l.OnDemand,
	}
	for k, v := range l.Extra {
		data[k] = v
	}
	return c.Store(EventLoad, data, nil)
}

// RecordUnload stores one context unload event.
func (c *Collector) RecordUnload(u Unload) bool {
	if u.AgentID == "" || u.ContextSize < 0 {
		return false
	}
	data := map[string]any{
		"agent_id":     u.AgentID,
		"context_size": u.ContextSize,
		"reason":       u.Reason,
	}
	for k, v := range u.Extra {
		data[k] = v
	}
	return c.Store(EventUnload, data, nil)
}

// Hypothesis implements core.Strategy.
func (c *Collector) Hypothesis() string { return core.HypothesisContextEfficiency }

// loadFigures is the per-load view extracted from the metric stream.
type loadFigures struct {
	sizes      []float64
	loadTimes  []float64
	relevances []float64
	cacheHits  int
	onDemand   int
	preload    int

	onDemandSize []float64
	preloadSize  []float64
}

func extractLoads(metrics []core.Metric) loadFigures {
	var f loadFigures
	for _, m := range metrics {
		if m.EventType != EventLoad {
			continue
		}
		size, _ := collector.Number(m.Data["context_size"])
		loadTime, _ := collector.Number(m.Data["load_time_ms"])
		relevance, _ := collector.Number(m.Data["relevance"])
		hit, _ := collector.Boolean(m.Data["cache_hit"])
		onDemand, _ := collector.Boolean(m.Data["on_demand"])

		f.sizes = append(f.sizes, size)
		f.loadTimes = append(f.loadTimes, loadTime)
		f.relevances = append(f.relevances, relevance)
		if hit {
			f.cacheHits++
		}
		if onDemand {
			f.onDemand++
			f.onDemandSize = append(f.onDemandSize, size)
		} else {
			f.preload++
			f.preloadSize = append(f.preloadSize, size)
		}
	}
	return f
}

// PerformAggregation implements core.Strategy. Efficiency (tokens per ms)
// degrades to 0 when no load time was measured, never a division error.
func (c *Collector) PerformAggregation(metrics []core.Metric) map[string]any {
	f := extractLoads(metrics)

	unloads := 0
	for _, m := range metrics {
		if m.EventType == EventUnload {
			unloads++
		}
	}

	var totalSize, totalTime float64
	for i := range f.sizes {
		totalSize += f.sizes[i]
		totalTime += f.loadTimes[i]
	}

	return map[string]any{
		"loads":                    len(f.sizes),
		"unloads":                  unloads,
		"avg_context_size":         core.Mean(f.sizes),
		"avg_load_time_ms":         core.Mean(f.loadTimes),
		"avg_relevance":            core.Mean(f.relevances),
		"cache_hit_rate":           core.Ratio(float64(f.cacheHits), float64(len(f.sizes))),
		"efficiency_tokens_per_ms": core.Ratio(totalSize, totalTime),
		"on_demand": map[string]any{
			"count":            f.onDemand,
			"avg_context_size": core.Mean(f.onDemandSize),
		},
		"preload": map[string]any{
			"count":            f.preload,
			"avg_context_size": core.Mean(f.preloadSize),
		},
	}
}

// PerformAnalysis implements core.Strategy. Context sizes trend on halves,
// load times on thirds since they are noisier.
func (c *Collector) PerformAnalysis(metrics []core.Metric, aggregated map[string]any) map[string]any {
	f := extractLoads(metrics)

	sizeTrend := core.ClassifyTrend(f.sizes, true)
	timeTrend := core.ClassifyTrendThirds(f.loadTimes, true)

	avgSize := core.Mean(f.sizes)
	return map[string]any{
		"context_size_trend":     sizeTrend,
		"load_time_trend":        timeTrend,
		"projected_context_size": core.Project(avgSize, sizeTrend, 10),
	}
}

// ValidateHypotheses implements core.Strategy. The hypothesis validates when
// the average context size dropped by at least the target share against the
// baseline and the sample size clears the confidence threshold.
func (c *Collector) ValidateHypotheses(metrics []core.Metric, aggregated, analysis map[string]any, baseline core.Baseline, targets core.Targets) map[string]core.HypothesisResult {
	f := extractLoads(metrics)
	avgSize := core.Mean(f.sizes)
	reduction := core.Reduction(baseline.Measurements.Context.AvgContextSize, avgSize)
	confidence := core.Confidence(len(f.sizes))

	r := core.NewResult(core.HypothesisContextEfficiency, confidence)
	r.Metrics = map[string]float64{
		"avg_context_size":  avgSize,
		"baseline_size":     baseline.Measurements.Context.AvgContextSize,
		"context_reduction": reduction,
		"cache_hit_rate":    core.Ratio(float64(f.cacheHits), float64(len(f.sizes))),
		"avg_relevance":     core.Mean(f.relevances),
	}

	r.AddCriterion("context_reduction", reduction, targets.ContextReduction,
		reduction >= targets.ContextReduction,
		fmt.Sprintf("context size reduced by %.1f%% against baseline (target %.1f%%)",
			reduction*100, targets.ContextReduction*100))
	r.AddCriterion("confidence", confidence, targets.ConfidenceThreshold,
		confidence >= targets.ConfidenceThreshold,
		fmt.Sprintf("confidence %.2f from %d samples meets threshold %.2f",
			confidence, len(f.sizes), targets.ConfidenceThreshold))
	r.Finalize()

	return map[string]core.HypothesisResult{r.Hypothesis: *r}
}
