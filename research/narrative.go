package research

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// renderNarrative turns a structured report into the human-readable markdown
// document persisted next to it.
func renderNarrative(report Report) []byte {
	var b strings.Builder

	b.WriteString("# Research Report\n\n")
	fmt.Fprintf(&b, "Session `%s`, generated %s.\n\n", report.SessionID, report.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "%s. Research progress: %.0f%%.\n\n", report.Summary, report.Progress*100)

	b.WriteString("## Hypotheses\n\n")
	for _, h := range report.Hypotheses {
		status := "not validated"
		if h.Result.Validated {
			status = "validated"
		}
		fmt.Fprintf(&b, "### %s\n\n", h.Hypothesis)
		fmt.Fprintf(&b, "Status: **%s** (confidence %.2f, %d samples)\n\n", status, h.Result.Confidence, h.SampleSize)

		if len(h.Result.Evidence) > 0 {
			b.WriteString("Evidence:\n\n")
			for _, e := range h.Result.Evidence {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			b.WriteString("\n")
		}

		if len(h.Result.Criteria) > 0 {
			b.WriteString("| Criterion | Actual | Threshold | Satisfied |\n|---|---|---|---|\n")
			for _, name := range sortedCriteria(h) {
				c := h.Result.Criteria[name]
				fmt.Fprintf(&b, "| %s | %.4f | %.4f | %v |\n", name, c.Actual, c.Threshold, c.Satisfied)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Experiments) > 0 {
		b.WriteString("## Experiments\n\n")
		b.WriteString("| Experiment | Control mean | Treatment mean | Delta | Confidence |\n|---|---|---|---|---|\n")
		for _, e := range report.Experiments {
			fmt.Fprintf(&b, "| %s | %.2f (n=%d) | %.2f (n=%d) | %+.1f%% | %.2f |\n",
				e.Name, e.Control.Mean, e.Control.Samples, e.Treatment.Mean, e.Treatment.Samples, e.Delta*100, e.Confidence)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Statistical Caveats\n\n")
	for _, c := range report.Caveats {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	return []byte(b.String())
}

func sortedCriteria(h HypothesisReport) []string {
	names := make([]string, 0, len(h.Result.Criteria))
	for name := range h.Result.Criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
