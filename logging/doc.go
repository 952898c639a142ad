// Package logging provides a minimal logging interface and adapters for researchmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that collectors and the research orchestrator use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - ResearchLogger with contextual helpers for collectors and validation runs
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	c := collector.New("coordination", func(o *collector.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
