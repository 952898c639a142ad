package collector

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/researchmesh/core"
)

// Format selects an export rendering.
type Format string

const (
	// FormatJSON renders the raw structured records.
	FormatJSON Format = "json"
	// FormatCSV renders a flat tabular view, one row per record.
	FormatCSV Format = "csv"
	// FormatMarkdown renders a human-readable narrative document.
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned for export formats this engine cannot render.
var ErrUnknownFormat = fmt.Errorf("unknown export format")

// Export retrieves the filtered records and renders them in the requested
// format.
func (e *Engine) Export(format Format, filter core.Filter) ([]byte, error) {
	metrics, err := e.Retrieve(filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve for export: %w", err)
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(metrics, "", "  ")
	case FormatCSV:
		return renderCSV(metrics)
	case FormatMarkdown:
		return e.renderMarkdown(metrics), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderCSV(metrics []core.Metric) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "session_id", "timestamp", "event_type", "data"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range metrics {
		data, err := json.Marshal(m.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal record data: %w", err)
		}
		row := []string{m.ID, m.SessionID, m.Timestamp.Format(time.RFC3339Nano), m.EventType, string(data)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (e *Engine) renderMarkdown(metrics []core.Metric) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Metrics Export: %s\n\n", e.name)
	fmt.Fprintf(&b, "Session `%s`, generated %s.\n\n", e.sessionID, time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Total records: **%d**\n\n", len(metrics))

	if len(metrics) == 0 {
		b.WriteString("No records matched the filter.\n")
		return []byte(b.String())
	}

	counts := countByType(metrics)
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	b.WriteString("## Events by type\n\n")
	b.WriteString("| Event type | Count |\n|---|---|\n")
	for _, t := range types {
		fmt.Fprintf(&b, "| %s | %d |\n", t, counts[t])
	}

	first := metrics[0].Timestamp
	last := metrics[len(metrics)-1].Timestamp
	fmt.Fprintf(&b, "\nTime span: %s to %s.\n", first.Format(time.RFC3339), last.Format(time.RFC3339))

	return []byte(b.String())
}
