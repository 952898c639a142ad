package core

// Statistical heuristics shared by every domain strategy.
//
// These are deliberately coarse: the confidence score is a step function of
// sample size (not a p-value) and trends come from comparing early and late
// sub-window averages with a fixed hysteresis band. Downstream validation
// depends on the exact constants, so they must not be "improved".

// Trend classifies the direction of a metric sequence.
type Trend string

const (
	// TrendImproving means the late window moved in the desired direction
	// by more than the hysteresis band.
	TrendImproving Trend = "improving"
	// TrendDegrading means the late window moved against the desired
	// direction by more than the hysteresis band.
	TrendDegrading Trend = "degrading"
	// TrendStable means the windows differ by at most the hysteresis band.
	TrendStable Trend = "stable"
	// TrendInsufficientData is returned below the minimum sample count.
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	// minTrendSamples is the minimum sequence length for a classification.
	minTrendSamples = 10
	// trendBand is the ±5% hysteresis band around "no change".
	trendBand = 0.05
)

// Confidence maps a sample size onto a heuristic confidence score in [0,1].
// It is a fixed step function gating hypothesis validation, monotonic
// non-decreasing in the sample size.
func Confidence(sampleSize int) float64 {
	switch {
	case sampleSize < 30:
		return 0.5
	case sampleSize < 100:
		return 0.7
	case sampleSize < 500:
		return 0.85
	case sampleSize < 1000:
		return 0.9
	default:
		return 0.95
	}
}

// ClassifyTrend compares the first-half average of the sequence against the
// second-half average. lowerIsBetter flips the interpretation for metrics
// such as load time or overhead where shrinking values are an improvement.
func ClassifyTrend(values []float64, lowerIsBetter bool) Trend {
	if len(values) < minTrendSamples {
		return TrendInsufficientData
	}
	half := len(values) / 2
	return classify(Mean(values[:half]), Mean(values[half:]), lowerIsBetter)
}

// ClassifyTrendThirds compares the first third against the last third,
// ignoring the middle of the sequence. Used for noisier metrics where the
// transition window would dilute the signal.
func ClassifyTrendThirds(values []float64, lowerIsBetter bool) Trend {
	if len(values) < minTrendSamples {
		return TrendInsufficientData
	}
	third := len(values) / 3
	return classify(Mean(values[:third]), Mean(values[len(values)-third:]), lowerIsBetter)
}

func classify(early, late float64, lowerIsBetter bool) Trend {
	if early == 0 {
		return TrendStable
	}
	delta := (late - early) / early
	if delta > -trendBand && delta < trendBand {
		return TrendStable
	}
	if lowerIsBetter == (delta < 0) {
		return TrendImproving
	}
	return TrendDegrading
}

// Per-period projection rates by trend direction. Improving sequences are
// assumed to keep gaining 3% per period, degrading ones to lose 2%.
const (
	improvingRate = 0.03
	degradingRate = -0.02
)

// Project extrapolates a value linearly over the given number of periods
// using the fixed per-direction rate. This is an advisory estimate for
// "time to target" reporting, not a forecast.
func Project(current float64, trend Trend, periods int) float64 {
	var rate float64
	switch trend {
	case TrendImproving:
		rate = improvingRate
	case TrendDegrading:
		rate = degradingRate
	default:
		return current
	}
	projected := current
	for i := 0; i < periods; i++ {
		projected += projected * rate
	}
	return projected
}

// Reduction returns (baseline-current)/baseline. A zero baseline yields 0
// rather than dividing by zero.
func Reduction(baseline, current float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (baseline - current) / baseline
}

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
