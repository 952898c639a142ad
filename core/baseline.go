package core

import "time"

// Baseline is the single reference document describing naive, pre-system
// performance. It is created once on first initialization and read-only
// afterwards; every improvement or reduction figure compares a current
// aggregation against these measurements.
type Baseline struct {
	Timestamp    time.Time            `json:"timestamp"`
	SessionID    string               `json:"session_id"`
	Measurements BaselineMeasurements `json:"measurements"`
}

// BaselineMeasurements groups the per-domain reference figures.
type BaselineMeasurements struct {
	Context      ContextBaseline      `json:"context"`
	Coordination CoordinationBaseline `json:"coordination"`
	Handoffs     HandoffBaseline      `json:"handoffs"`
}

// ContextBaseline describes preload-everything context behavior.
type ContextBaseline struct {
	AvgContextSize float64 `json:"avg_context_size"` // tokens
	AvgLoadTimeMs  float64 `json:"avg_load_time_ms"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
}

// CoordinationBaseline describes point-to-point routing behavior.
type CoordinationBaseline struct {
	RoutingCompliance    float64 `json:"routing_compliance"`
	CoordinationOverhead float64 `json:"coordination_overhead"`
}

// HandoffBaseline describes ad-hoc, contract-free handoff behavior.
type HandoffBaseline struct {
	SuccessRate  float64 `json:"success_rate"`
	TestCoverage float64 `json:"test_coverage"`
}

// DefaultBaseline returns the reference measurements recorded for the naive
// architecture: full context preloading, mostly direct agent-to-agent
// routing and untested ad-hoc handoffs.
func DefaultBaseline(sessionID string) Baseline {
	return Baseline{
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Measurements: BaselineMeasurements{
			Context: ContextBaseline{
				AvgContextSize: 150000,
				AvgLoadTimeMs:  850,
				CacheHitRate:   0,
			},
			Coordination: CoordinationBaseline{
				RoutingCompliance:    0.35,
				CoordinationOverhead: 0.40,
			},
			Handoffs: HandoffBaseline{
				SuccessRate:  0.70,
				TestCoverage: 0.45,
			},
		},
	}
}
