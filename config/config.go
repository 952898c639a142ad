// Package config loads the TOML configuration surface: storage backend
// selection, collector tuning, validation targets and research timer
// intervals. Loading is defaults-first: a missing or corrupt file is
// repaired by regenerating defaults rather than failing startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/storage"
)

// Config is the full configuration document.
type Config struct {
	Storage   Storage   `toml:"storage"`
	Collector Collector `toml:"collector"`
	Targets   Targets   `toml:"targets"`
	Research  Research  `toml:"research"`
}

// Storage selects and tunes the persistence backend.
type Storage struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `toml:"backend"`

	// Dir is the root directory for the file backend and the parent
	// directory of the sqlite database file.
	Dir string `toml:"dir"`

	// Compress enables zstd compression of snapshot files (file backend).
	Compress bool `toml:"compress"`
}

// Collector tunes the collection engines. Durations are plain integers in
// the file to keep the TOML surface simple.
type Collector struct {
	BufferSize          int `toml:"buffer_size"`
	FlushIntervalSecs   int `toml:"flush_interval_secs"`
	CleanupIntervalSecs int `toml:"cleanup_interval_secs"`
	RetentionDays       int `toml:"retention_days"`
}

// Targets holds the per-hypothesis validation thresholds.
type Targets struct {
	ContextReduction        float64 `toml:"context_reduction"`
	RoutingCompliance       float64 `toml:"routing_compliance"`
	MaxCoordinationOverhead float64 `toml:"max_coordination_overhead"`
	HandoffSuccessRate      float64 `toml:"handoff_success_rate"`
	TestCoverage            float64 `toml:"test_coverage"`
	ConfidenceThreshold     float64 `toml:"confidence_threshold"`
}

// Research tunes the orchestrator timers and experiment seeding.
type Research struct {
	ValidationIntervalSecs int    `toml:"validation_interval_secs"`
	ReportIntervalSecs     int    `toml:"report_interval_secs"`
	AutoExperiments        bool   `toml:"auto_experiments"`
	ExperimentsFile        string `toml:"experiments_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	targets := core.DefaultTargets()
	return Config{
		Storage: Storage{
			Backend:  "memory",
			Dir:      "researchmesh-data",
			Compress: false,
		},
		Collector: Collector{
			BufferSize:          collector.DefaultConfig.BufferSize,
			FlushIntervalSecs:   int(collector.DefaultConfig.FlushInterval / time.Second),
			CleanupIntervalSecs: int(collector.DefaultConfig.CleanupInterval / time.Second),
			RetentionDays:       int(collector.DefaultConfig.RetentionPeriod / (24 * time.Hour)),
		},
		Targets: Targets{
			ContextReduction:        targets.ContextReduction,
			RoutingCompliance:       targets.RoutingCompliance,
			MaxCoordinationOverhead: targets.MaxCoordinationOverhead,
			HandoffSuccessRate:      targets.HandoffSuccessRate,
			TestCoverage:            targets.TestCoverage,
			ConfidenceThreshold:     targets.ConfidenceThreshold,
		},
		Research: Research{
			ValidationIntervalSecs: 300,
			ReportIntervalSecs:     1800,
			AutoExperiments:        false,
		},
	}
}

// Load reads the configuration file over the defaults. A missing file
// returns the defaults without error; a corrupt file returns the defaults
// plus the parse error so the caller can warn and continue.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as TOML.
func Save(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// CollectorConfig converts the file representation into engine tuning.
func (c Config) CollectorConfig() collector.Config {
	return collector.Config{
		BufferSize:      c.Collector.BufferSize,
		FlushInterval:   time.Duration(c.Collector.FlushIntervalSecs) * time.Second,
		CleanupInterval: time.Duration(c.Collector.CleanupIntervalSecs) * time.Second,
		RetentionPeriod: time.Duration(c.Collector.RetentionDays) * 24 * time.Hour,
		Targets:         c.CoreTargets(),
	}
}

// CoreTargets converts the configured thresholds into the shared type.
func (c Config) CoreTargets() core.Targets {
	return core.Targets{
		ContextReduction:        c.Targets.ContextReduction,
		RoutingCompliance:       c.Targets.RoutingCompliance,
		MaxCoordinationOverhead: c.Targets.MaxCoordinationOverhead,
		HandoffSuccessRate:      c.Targets.HandoffSuccessRate,
		TestCoverage:            c.Targets.TestCoverage,
		ConfidenceThreshold:     c.Targets.ConfidenceThreshold,
	}
}

// ValidationInterval returns the validation timer period.
func (c Config) ValidationInterval() time.Duration {
	return time.Duration(c.Research.ValidationIntervalSecs) * time.Second
}

// ReportInterval returns the reporting timer period.
func (c Config) ReportInterval() time.Duration {
	return time.Duration(c.Research.ReportIntervalSecs) * time.Second
}

// OpenStore constructs the configured persistence backend.
func (c Config) OpenStore(logger logging.Logger) (core.MetricStore, error) {
	switch c.Storage.Backend {
	case "", "memory":
		return storage.NewInMemoryStore(), nil
	case "file":
		return storage.NewFileStore(c.Storage.Dir, func(o *storage.FileStoreOptions) {
			o.Compress = c.Storage.Compress
			o.Logger = logger
		})
	case "sqlite":
		if err := os.MkdirAll(c.Storage.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		return storage.NewSQLiteStore(filepath.Join(c.Storage.Dir, "metrics.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
}
