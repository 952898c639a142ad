package collector

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
)

func newExportEngine(t *testing.T) *Engine {
	t.Helper()
	e := New("coordination")
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { e.Shutdown(context.Background()) })

	require.True(t, e.Store("routing_request", map[string]any{"from": "hub", "to": "researcher"}, nil))
	require.True(t, e.Store("routing_completion", map[string]any{"duration_ms": 12}, nil))
	require.True(t, e.Store("routing_request", map[string]any{"from": "hub", "to": "writer"}, nil))
	require.NoError(t, e.Flush())
	return e
}

func TestEngine_ExportJSON(t *testing.T) {
	e := newExportEngine(t)

	out, err := e.Export(FormatJSON, core.Filter{})
	require.NoError(t, err)

	var metrics []core.Metric
	require.NoError(t, json.Unmarshal(out, &metrics))
	require.Len(t, metrics, 3)
	assert.Equal(t, "routing_request", metrics[0].EventType)
}

func TestEngine_ExportCSV(t *testing.T) {
	e := newExportEngine(t)

	out, err := e.Export(FormatCSV, core.Filter{EventType: "routing_request"})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two filtered rows
	assert.Equal(t, []string{"id", "session_id", "timestamp", "event_type", "data"}, rows[0])
	assert.Equal(t, "routing_request", rows[1][3])
	assert.Contains(t, rows[1][4], `"from":"hub"`)
}

func TestEngine_ExportMarkdown(t *testing.T) {
	e := newExportEngine(t)

	out, err := e.Export(FormatMarkdown, core.Filter{})
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, "# Metrics Export: coordination")
	assert.Contains(t, doc, "Total records: **3**")
	assert.Contains(t, doc, "| routing_request | 2 |")
	assert.Contains(t, doc, "| routing_completion | 1 |")
}

func TestEngine_ExportMarkdownEmpty(t *testing.T) {
	e := New("coordination")
	require.NoError(t, e.Initialize())
	defer e.Shutdown(context.Background())

	out, err := e.Export(FormatMarkdown, core.Filter{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "No records matched the filter.")
}

func TestEngine_ExportUnknownFormat(t *testing.T) {
	e := New("coordination")
	require.NoError(t, e.Initialize())
	defer e.Shutdown(context.Background())

	_, err := e.Export(Format("xml"), core.Filter{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
