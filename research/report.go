package research

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/researchmesh/core"
)

// Report is the structured research report persisted on every reporting
// timer tick and at shutdown. A markdown narrative rendering is persisted
// alongside it.
type Report struct {
	GeneratedAt       time.Time               `json:"generated_at"`
	SessionID         string                  `json:"session_id"`
	Summary           string                  `json:"summary"`
	Progress          float64                 `json:"progress"`
	Validated         int                     `json:"validated"`
	OverallConfidence float64                 `json:"overall_confidence"`
	Hypotheses        []HypothesisReport      `json:"hypotheses"`
	Experiments       []core.ExperimentResult `json:"experiments"`
	Caveats           []string                `json:"caveats"`
}

// HypothesisReport is the per-hypothesis section of a report.
type HypothesisReport struct {
	Hypothesis string                `json:"hypothesis"`
	SampleSize int                   `json:"sample_size"`
	Result     core.HypothesisResult `json:"result"`
}

// GenerateResearchReport runs a validation pass, pulls experiment results
// from the harness and persists the structured report plus its narrative
// rendering through the shared store. Persistence failures are logged and
// swallowed so reporting never takes the system down.
func (o *Orchestrator) GenerateResearchReport() (Report, error) {
	progress, err := o.PerformPeriodicValidation()
	if err != nil {
		return Report{}, err
	}

	report := Report{
		GeneratedAt:       progress.Timestamp,
		SessionID:         o.sessionID,
		Progress:          progress.Progress,
		Validated:         progress.Validated,
		OverallConfidence: progress.OverallConfidence,
		Experiments:       o.runner.Results(),
	}

	for _, hypothesis := range core.Hypotheses() {
		result, ok := progress.Results[hypothesis]
		if !ok {
			result = core.EmptyResult(hypothesis)
		}
		report.Hypotheses = append(report.Hypotheses, HypothesisReport{
			Hypothesis: hypothesis,
			SampleSize: progress.SampleSizes[hypothesis],
			Result:     result,
		})
	}

	report.Summary = fmt.Sprintf(
		"%d of %d hypotheses validated (overall confidence %.2f)",
		report.Validated, len(core.Hypotheses()), report.OverallConfidence)
	report.Caveats = caveats(report)

	o.persistReport(report)

	o.notifier.Publish(core.Notification{
		Type:      core.NotificationReportGenerated,
		Collector: "research",
		Payload: map[string]any{
			"progress":  report.Progress,
			"validated": report.Validated,
		},
	})
	return report, nil
}

func (o *Orchestrator) persistReport(report Report) {
	stamp := report.GeneratedAt.UTC().Format("20060102-150405")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		o.logger.Error("report serialization failed", "error", err)
		return
	}
	if err := o.store.SaveArtifact("reports", fmt.Sprintf("research-%s.json", stamp), data); err != nil {
		o.logger.Error("report persistence failed", "error", err)
	}
	if err := o.store.SaveArtifact("reports", fmt.Sprintf("research-%s.md", stamp), renderNarrative(report)); err != nil {
		o.logger.Error("narrative persistence failed", "error", err)
	}
}

// caveats discloses the statistical validity threats of the report: sample
// sizes, the heuristic nature of the confidence score and single-session
// temporal variance.
func caveats(report Report) []string {
	out := []string{
		"confidence scores are a heuristic step function of sample size, not p-values",
		"all measurements come from a single session; temporal variance is not controlled for",
	}
	for _, h := range report.Hypotheses {
		if h.SampleSize < 100 {
			out = append(out, fmt.Sprintf(
				"%s rests on %d samples; results below 100 samples are preliminary",
				h.Hypothesis, h.SampleSize))
		}
	}
	return out
}
