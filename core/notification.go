package core

import (
	"sync"
	"time"
)

// NotificationType labels the lifecycle points a collector reports on.
type NotificationType string

const (
	// NotificationMetricCollected fires after a record is accepted into
	// the buffer.
	NotificationMetricCollected NotificationType = "metric_collected"

	// NotificationValidationError fires when a malformed record is
	// rejected. Per-record and never fatal.
	NotificationValidationError NotificationType = "validation_error"

	// NotificationFlush fires after the buffer is drained into a snapshot.
	NotificationFlush NotificationType = "flush"

	// NotificationAggregation fires after an aggregation run completes.
	NotificationAggregation NotificationType = "aggregation"

	// NotificationTimerError fires when a timer callback fails; the timer
	// keeps running on its next tick.
	NotificationTimerError NotificationType = "timer_error"

	// NotificationShutdown fires once after a collector shuts down.
	NotificationShutdown NotificationType = "shutdown"

	// NotificationResearchComplete fires exactly when all hypotheses are
	// simultaneously validated on a validation run.
	NotificationResearchComplete NotificationType = "research_complete"

	// NotificationReportGenerated fires after a research report has been
	// rendered and persisted.
	NotificationReportGenerated NotificationType = "report_generated"
)

// Notification is an out-of-band signal from a collector or the research
// orchestrator to registered handlers.
type Notification struct {
	Type      NotificationType
	Collector string
	Timestamp time.Time
	Payload   map[string]any
}

// NotificationHandler consumes notifications. Handlers run synchronously on
// the emitting goroutine and must not block.
type NotificationHandler func(Notification)

// Notifier dispatches notifications to handlers in registration order
// (FIFO per collector). There is no global bus: every collector owns its
// own Notifier and the orchestrator re-publishes on its own.
type Notifier struct {
	mu       sync.RWMutex
	handlers []NotificationHandler
}

// Subscribe registers a handler. Registration order is delivery order.
func (n *Notifier) Subscribe(h NotificationHandler) {
	if h == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Publish delivers the notification to every handler in registration order.
func (n *Notifier) Publish(notification Notification) {
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}
	n.mu.RLock()
	handlers := make([]NotificationHandler, len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.RUnlock()
	for _, h := range handlers {
		h(notification)
	}
}
