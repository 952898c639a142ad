package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetric(t *testing.T) {
	m := NewMetric("sess-1", "context_load", map[string]any{"size": 1200}, nil)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "sess-1", m.SessionID)
	assert.Equal(t, "context_load", m.EventType)
	assert.False(t, m.Timestamp.IsZero())
	assert.True(t, m.Valid())

	other := NewMetric("sess-1", "context_load", nil, nil)
	assert.NotEqual(t, m.ID, other.ID)
	assert.False(t, other.Valid(), "nil data must be rejected")
}

func TestMetricValid(t *testing.T) {
	base := NewMetric("s", "e", map[string]any{}, nil)
	assert.True(t, base.Valid())

	for name, mutate := range map[string]func(*Metric){
		"missing id":        func(m *Metric) { m.ID = "" },
		"missing session":   func(m *Metric) { m.SessionID = "" },
		"missing type":      func(m *Metric) { m.EventType = "" },
		"zero timestamp":    func(m *Metric) { m.Timestamp = time.Time{} },
		"nil data":          func(m *Metric) { m.Data = nil },
	} {
		m := base
		mutate(&m)
		assert.False(t, m.Valid(), name)
	}
}

func TestFilterMatches(t *testing.T) {
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := Metric{ID: "1", SessionID: "s1", EventType: "routing_completion", Timestamp: ts, Data: map[string]any{}}

	assert.True(t, Filter{}.Matches(m))
	assert.True(t, Filter{EventType: "routing_completion"}.Matches(m))
	assert.False(t, Filter{EventType: "routing_request"}.Matches(m))
	assert.True(t, Filter{SessionID: "s1"}.Matches(m))
	assert.False(t, Filter{SessionID: "s2"}.Matches(m))

	// Range bounds are inclusive on both ends.
	assert.True(t, Filter{StartTime: ts, EndTime: ts}.Matches(m))
	assert.False(t, Filter{StartTime: ts.Add(time.Second)}.Matches(m))
	assert.False(t, Filter{EndTime: ts.Add(-time.Second)}.Matches(m))
}

func TestHypothesisResult_Finalize(t *testing.T) {
	r := NewResult(HypothesisHubAndSpoke, 0.7)
	r.AddCriterion("compliance", 0.92, 0.90, true, "compliance 92% meets 90% target")
	r.AddCriterion("overhead", 0.12, 0.15, true, "overhead 12% under 15% cap")
	r.Finalize()
	assert.True(t, r.Validated)
	assert.Len(t, r.Evidence, 2)

	// One failing criterion invalidates the hypothesis.
	r.AddCriterion("confidence", 0.5, 0.7, false, "")
	r.Finalize()
	assert.False(t, r.Validated)
	assert.Len(t, r.Evidence, 2, "no evidence for unsatisfied criteria")
}

func TestHypothesisResult_EmptyNeverValidates(t *testing.T) {
	r := EmptyResult(HypothesisContextEfficiency)
	r.Finalize()
	assert.False(t, r.Validated)
	assert.Zero(t, r.Confidence)
}

func TestNotifier_FIFOOrder(t *testing.T) {
	var n Notifier
	var order []string
	n.Subscribe(func(Notification) { order = append(order, "first") })
	n.Subscribe(func(Notification) { order = append(order, "second") })
	n.Subscribe(func(Notification) { order = append(order, "third") })

	n.Publish(Notification{Type: NotificationFlush, Collector: "coordination"})
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestNotifier_StampsTimestamp(t *testing.T) {
	var n Notifier
	var got Notification
	n.Subscribe(func(notification Notification) { got = notification })
	n.Publish(Notification{Type: NotificationMetricCollected})
	assert.False(t, got.Timestamp.IsZero())
}

func TestTimeRangeFilter(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	end := time.Now()
	f := TimeRange{Start: start, End: end}.Filter()
	assert.Equal(t, start, f.StartTime)
	assert.Equal(t, end, f.EndTime)
	assert.Empty(t, f.EventType)
}
