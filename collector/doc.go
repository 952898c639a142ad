// Package collector implements the base metrics collection engine shared by
// every domain collector: in-memory buffering, snapshot persistence,
// filtered retrieval, retention cleanup, strategy-driven aggregation and
// export rendering.
//
// The engine owns its own flush and cleanup timers, started by Initialize
// and stopped by Shutdown; there is no reliance on process-wide signal
// handlers. Domain behavior (event vocabularies, ratios, hypothesis
// validation) is supplied through a core.Strategy rather than inheritance,
// so the three domain collectors stay independently testable.
//
// Failure semantics follow one rule: metrics collection must never crash
// the host process. Malformed records are rejected per-record with a
// notification, persistence failures are logged and swallowed (the buffer
// is retained for retry on the next flush), and timer callback errors are
// reported without killing the timer.
package collector
