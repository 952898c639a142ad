package collector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/storage"
)

// Config defines tuning parameters for the collection engine.
type Config struct {
	// BufferSize is the number of buffered metrics that triggers a
	// synchronous flush. Records are only durable after a flush.
	BufferSize int

	// FlushInterval is the period of the background flush timer.
	FlushInterval time.Duration

	// CleanupInterval is the period of the retention cleanup timer.
	CleanupInterval time.Duration

	// RetentionPeriod bounds the age of persisted snapshot and
	// aggregation artifacts; older files age out on the next cleanup.
	RetentionPeriod time.Duration

	// Targets holds the hypothesis validation thresholds handed to the
	// strategy on every aggregation run.
	Targets core.Targets
}

// DefaultConfig provides conservative defaults safe for local development:
// small buffer, half-minute flushes, hourly cleanup, one week retention.
var DefaultConfig = Config{
	BufferSize:      50,
	FlushInterval:   30 * time.Second,
	CleanupInterval: time.Hour,
	RetentionPeriod: 7 * 24 * time.Hour,
	Targets:         core.DefaultTargets(),
}

// Options configures an Engine instance using the functional options
// pattern. Every service has a safe in-memory default so tests and examples
// need no wiring.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	Config Config

	// Store persists snapshots, aggregations, the baseline and summaries.
	// Defaults to an in-memory implementation.
	Store core.MetricStore

	// Strategy supplies the domain aggregation/analysis/validation hooks.
	// A nil strategy yields counts-only aggregations with an empty
	// validation block.
	Strategy core.Strategy

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// SessionID identifies this engine run. Defaults to a fresh UUID.
	SessionID string
}

// Engine is the buffered metrics collection engine. One Engine instance
// backs one domain collector; instances are independent and share nothing
// but (optionally) a MetricStore.
//
// Concurrency model: Store may be called from any goroutine and interleaves
// with the flush/cleanup timers. The buffer is drained copy-then-clear under
// the mutex so records appended during a flush are never lost. Within one
// engine, metrics reach snapshots in buffered order; there is no
// cross-collector ordering guarantee.
type Engine struct {
	name      string
	config    Config
	store     core.MetricStore
	strategy  core.Strategy
	logger    logging.Logger
	sessionID string

	notifier core.Notifier

	mu           sync.Mutex
	buffer       []core.Metric
	collected    int
	baseline     core.Baseline
	sessionStart time.Time
	initialized  bool
	closed       bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New constructs an engine for the named collector. The name scopes all
// persisted artifacts.
func New(name string, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:    DefaultConfig,
		Store:     storage.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
		SessionID: core.NewID(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		name:      name,
		config:    opts.Config,
		store:     opts.Store,
		strategy:  opts.Strategy,
		logger:    opts.Logger,
		sessionID: opts.SessionID,
		done:      make(chan struct{}),
	}
}

// Name returns the collector name.
func (e *Engine) Name() string { return e.name }

// SessionID returns the session identifier assigned at construction.
func (e *Engine) SessionID() string { return e.sessionID }

// Subscribe registers a notification handler. Handlers are invoked
// synchronously in registration order.
func (e *Engine) Subscribe(h core.NotificationHandler) { e.notifier.Subscribe(h) }

// Initialize loads or creates the baseline and starts the flush and cleanup
// timers. It is idempotent; repeated calls are no-ops.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	if e.initialized || e.closed {
		e.mu.Unlock()
		return nil
	}
	e.initialized = true
	e.sessionStart = time.Now().UTC()
	e.mu.Unlock()

	baseline, err := e.store.LoadBaseline()
	if err != nil {
		baseline = core.DefaultBaseline(e.sessionID)
		if saveErr := e.store.SaveBaseline(baseline); saveErr != nil && saveErr != core.ErrBaselineExists {
			// Persistence failures never interrupt initialization; the
			// in-memory default still drives validation.
			e.logger.Warn("baseline persistence failed", "collector", e.name, "error", saveErr)
		}
		if saveErr := err; saveErr != core.ErrBaselineNotFound {
			e.logger.Warn("baseline load failed, regenerated defaults", "collector", e.name, "error", saveErr)
		}
	}
	e.mu.Lock()
	e.baseline = baseline
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run()

	e.logger.Info("collector initialized", "collector", e.name, "session_id", e.sessionID)
	return nil
}

// Baseline returns the reference measurements loaded at initialization.
func (e *Engine) Baseline() core.Baseline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseline
}

// MetricsCollected returns the number of records accepted this session.
func (e *Engine) MetricsCollected() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collected
}

// Store sanitizes and validates one record, appends it to the buffer and
// triggers a synchronous flush once the buffer reaches its configured size.
// It returns false (after a validation-error notification) for malformed
// records; malformed input never interrupts the caller. Records arriving
// after Shutdown are dropped with a warning, since the timers are stopped
// and the final flush has already run.
func (e *Engine) Store(eventType string, data, metadata map[string]any) bool {
	m := core.NewMetric(e.sessionID, eventType, Sanitize(data), metadata)
	if !m.Valid() {
		e.notifier.Publish(core.Notification{
			Type:      core.NotificationValidationError,
			Collector: e.name,
			Payload:   map[string]any{"event_type": eventType},
		})
		return false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Warn("record dropped after shutdown", "collector", e.name, "event_type", eventType)
		return false
	}
	e.buffer = append(e.buffer, m)
	e.collected++
	full := len(e.buffer) >= e.config.BufferSize
	e.mu.Unlock()

	e.notifier.Publish(core.Notification{
		Type:      core.NotificationMetricCollected,
		Collector: e.name,
		Payload:   map[string]any{"event_type": eventType, "metric_id": m.ID},
	})

	if full {
		// Flush errors are logged and swallowed; the batch is retained
		// for retry so a slow or broken disk never fails the producer.
		_ = e.Flush()
	}
	return true
}

// Flush drains the buffer into one snapshot. The drain is copy-then-clear
// under the lock, so records stored concurrently land in the next batch. On
// persistence failure the batch is put back at the front of the buffer and
// retried on the next flush.
func (e *Engine) Flush() error {
	e.mu.Lock()
	if len(e.buffer) == 0 {
		e.mu.Unlock()
		return nil
	}
	batch := e.buffer
	e.buffer = nil
	e.mu.Unlock()

	snap := core.NewSnapshot(e.sessionID, batch)
	start := time.Now()
	if err := e.store.SaveSnapshot(e.name, snap); err != nil {
		e.mu.Lock()
		e.buffer = append(batch, e.buffer...)
		e.mu.Unlock()
		e.logger.Error("snapshot persistence failed, batch retained", "collector", e.name, "metrics", len(batch), "error", err)
		return err
	}

	e.logger.Debug("buffer flushed", "collector", e.name, "metrics", len(batch), "duration", time.Since(start))
	e.notifier.Publish(core.Notification{
		Type:      core.NotificationFlush,
		Collector: e.name,
		Payload:   map[string]any{"snapshot_id": snap.ID, "metrics": len(batch)},
	})
	return nil
}

// Retrieve scans all persisted snapshots, applies the filter and returns
// matches ordered by timestamp ascending. Buffered, not-yet-flushed records
// are not included; that staleness window is part of the contract.
func (e *Engine) Retrieve(filter core.Filter) ([]core.Metric, error) {
	snaps, err := e.store.Snapshots(e.name)
	if err != nil {
		return nil, err
	}

	var metrics []core.Metric
	for _, snap := range snaps {
		for _, m := range snap.Metrics {
			if filter.Matches(m) {
				metrics = append(metrics, m)
			}
		}
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Timestamp.Before(metrics[j].Timestamp)
	})
	return metrics, nil
}

// Aggregate retrieves the metrics in the given range and derives a
// persisted aggregation through the strategy hooks. An empty metric set
// yields the well-defined empty aggregation (zero sample size, zero
// confidence validation block) and is returned without being persisted.
func (e *Engine) Aggregate(tr core.TimeRange) (core.Aggregation, error) {
	metrics, err := e.Retrieve(tr.Filter())
	if err != nil {
		// Degraded retrieval reads as "no data" rather than failing the
		// aggregation cycle.
		e.logger.Error("retrieval failed during aggregation", "collector", e.name, "error", err)
		metrics = nil
	}

	agg := core.Aggregation{
		Timestamp:  time.Now().UTC(),
		SessionID:  e.sessionID,
		TimeRange:  tr,
		SampleSize: len(metrics),
		Aggregated: map[string]any{"event_counts": countByType(metrics)},
		Analysis:   map[string]any{},
		Validation: map[string]core.HypothesisResult{},
	}

	if len(metrics) == 0 {
		if e.strategy != nil {
			h := e.strategy.Hypothesis()
			agg.Validation[h] = core.EmptyResult(h)
		}
		return agg, nil
	}

	if e.strategy != nil {
		for k, v := range e.strategy.PerformAggregation(metrics) {
			agg.Aggregated[k] = v
		}
		agg.Analysis = e.strategy.PerformAnalysis(metrics, agg.Aggregated)
		agg.Validation = e.strategy.ValidateHypotheses(metrics, agg.Aggregated, agg.Analysis, e.Baseline(), e.config.Targets)
	}

	if err := e.store.SaveAggregation(e.name, agg); err != nil {
		e.logger.Error("aggregation persistence failed", "collector", e.name, "error", err)
	}

	e.notifier.Publish(core.Notification{
		Type:      core.NotificationAggregation,
		Collector: e.name,
		Payload:   map[string]any{"sample_size": agg.SampleSize},
	})
	return agg, nil
}

func countByType(metrics []core.Metric) map[string]int {
	counts := make(map[string]int)
	for _, m := range metrics {
		counts[m.EventType]++
	}
	return counts
}

// run drives the flush and cleanup timers until Shutdown. Errors and panics
// inside a tick are reported as timer-error notifications so the timer
// keeps running on its next tick rather than dying silently.
func (e *Engine) run() {
	defer e.wg.Done()

	flush := time.NewTicker(e.config.FlushInterval)
	defer flush.Stop()
	cleanup := time.NewTicker(e.config.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-flush.C:
			e.tick("flush", e.Flush)
		case <-cleanup.C:
			e.tick("cleanup", e.cleanup)
		}
	}
}

func (e *Engine) cleanup() error {
	removed, err := e.store.Prune(time.Now().Add(-e.config.RetentionPeriod))
	if err != nil {
		return err
	}
	if removed > 0 {
		e.logger.Info("retention cleanup removed artifacts", "collector", e.name, "removed", removed)
	}
	return nil
}

func (e *Engine) tick(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("timer callback panicked", "collector", e.name, "timer", name, "panic", r)
			e.notifier.Publish(core.Notification{
				Type:      core.NotificationTimerError,
				Collector: e.name,
				Payload:   map[string]any{"timer": name, "panic": r},
			})
		}
	}()
	if err := fn(); err != nil {
		e.notifier.Publish(core.Notification{
			Type:      core.NotificationTimerError,
			Collector: e.name,
			Payload:   map[string]any{"timer": name, "error": err.Error()},
		})
	}
}

// Shutdown stops the timers, performs a final flush and writes the session
// summary. It is safe to call once; subsequent calls are no-ops. The
// context bounds nothing today (all work is local) but keeps the call
// signature uniform with other lifecycle APIs.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || !e.initialized {
		e.closed = true
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	start := e.sessionStart
	collected := e.collected
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()

	_ = e.Flush()

	end := time.Now().UTC()
	summary := core.SessionSummary{
		SessionID:        e.sessionID,
		Collector:        e.name,
		StartTime:        start,
		EndTime:          end,
		Duration:         end.Sub(start),
		MetricsCollected: collected,
		FinalState:       map[string]any{"clean_shutdown": ctx.Err() == nil},
	}
	if err := e.store.SaveSummary(summary); err != nil {
		e.logger.Error("session summary persistence failed", "collector", e.name, "error", err)
	}

	e.notifier.Publish(core.Notification{
		Type:      core.NotificationShutdown,
		Collector: e.name,
		Payload:   map[string]any{"metrics_collected": collected},
	})
	e.logger.Info("collector shut down", "collector", e.name, "metrics_collected", collected)
	return nil
}
