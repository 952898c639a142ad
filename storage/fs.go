package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

// FileStore is a file system backed MetricStore. Snapshots and aggregations
// are written as individual JSON documents (optionally zstd compressed) so
// external reporting tools can consume them without going through this
// library. The on-disk layout:
//
//	root/
//	  baseline.json
//	  <collector>/snapshots/snap-<unixmilli>-<id>.json[.zst]
//	  <collector>/aggregations/agg-<unixmilli>-<id>.json
//	  summaries/<collector>-<session>.json
//	  artifacts/<kind>/<name>
//
// Artifact timestamps are encoded into file names so retention pruning does
// not depend on file system mtimes. Corrupted or unreadable snapshot files
// are skipped with a warning rather than failing the whole scan.
type FileStore struct {
	root     string
	compress bool
	logger   logging.Logger
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Compress enables zstd compression of snapshot files.
	Compress bool
	// Logger receives warnings about skipped files and IO failures.
	Logger logging.Logger
}

// NewFileStore creates (if needed) the root directory and returns a store.
func NewFileStore(root string, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FileStore{root: root, compress: opts.Compress, logger: opts.Logger}, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) snapshotDir(collector string) string {
	return filepath.Join(s.root, collector, "snapshots")
}

func (s *FileStore) aggregationDir(collector string) string {
	return filepath.Join(s.root, collector, "aggregations")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SaveSnapshot writes the snapshot as its own JSON document.
func (s *FileStore) SaveSnapshot(collector string, snap core.Snapshot) error {
	dir := s.snapshotDir(collector)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snap-%d-%s.json", snap.Timestamp.UnixMilli(), shortID(snap.ID))
	if s.compress {
		name += ".zst"
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return s.writeFile(filepath.Join(dir, name), data)
}

func (s *FileStore) writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	encoder, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return encoder.Close()
}

func (s *FileStore) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		return io.ReadAll(f)
	}

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return io.ReadAll(decoder)
}

// Snapshots scans the collector's snapshot directory. Unreadable files are
// logged and skipped so one corrupted artifact never hides the rest.
func (s *FileStore) Snapshots(collector string) ([]core.Snapshot, error) {
	entries, err := os.ReadDir(s.snapshotDir(collector))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var snaps []core.Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "snap-") {
			continue
		}
		path := filepath.Join(s.snapshotDir(collector), entry.Name())
		data, err := s.readFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot", "path", path, "error", err)
			continue
		}
		var snap core.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.logger.Warn("skipping corrupted snapshot", "path", path, "error", err)
			continue
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Timestamp.Before(snaps[j].Timestamp) })
	return snaps, nil
}

// SaveAggregation writes the aggregation as its own JSON document.
// Aggregations are never compressed; they are small and meant for direct
// consumption by reporting tools.
func (s *FileStore) SaveAggregation(collector string, agg core.Aggregation) error {
	dir := s.aggregationDir(collector)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create aggregation dir: %w", err)
	}

	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal aggregation: %w", err)
	}

	name := fmt.Sprintf("agg-%d-%s.json", agg.Timestamp.UnixMilli(), shortID(core.NewID()))
	return s.writeFile(filepath.Join(dir, name), data)
}

// Aggregations scans the collector's aggregation directory, skipping
// unreadable documents.
func (s *FileStore) Aggregations(collector string) ([]core.Aggregation, error) {
	entries, err := os.ReadDir(s.aggregationDir(collector))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read aggregation dir: %w", err)
	}

	var aggs []core.Aggregation
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "agg-") {
			continue
		}
		path := filepath.Join(s.aggregationDir(collector), entry.Name())
		data, err := s.readFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable aggregation", "path", path, "error", err)
			continue
		}
		var agg core.Aggregation
		if err := json.Unmarshal(data, &agg); err != nil {
			s.logger.Warn("skipping corrupted aggregation", "path", path, "error", err)
			continue
		}
		aggs = append(aggs, agg)
	}

	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Timestamp.Before(aggs[j].Timestamp) })
	return aggs, nil
}

func (s *FileStore) baselinePath() string {
	return filepath.Join(s.root, "baseline.json")
}

// LoadBaseline reads the create-once baseline document.
func (s *FileStore) LoadBaseline() (core.Baseline, error) {
	data, err := os.ReadFile(s.baselinePath())
	if err != nil {
		if os.IsNotExist(err) {
			return core.Baseline{}, core.ErrBaselineNotFound
		}
		return core.Baseline{}, fmt.Errorf("read baseline: %w", err)
	}
	var b core.Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		// A corrupted baseline is treated as absent so initialization can
		// regenerate defaults.
		s.logger.Warn("baseline file corrupted, treating as absent", "error", err)
		return core.Baseline{}, core.ErrBaselineNotFound
	}
	return b, nil
}

// SaveBaseline writes the baseline exactly once. There is no programmatic
// reset path; removing the file manually is the only escape hatch.
func (s *FileStore) SaveBaseline(b core.Baseline) error {
	if _, err := os.Stat(s.baselinePath()); err == nil {
		return core.ErrBaselineExists
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	return os.WriteFile(s.baselinePath(), data, 0o644)
}

// SaveSummary writes a session summary document.
func (s *FileStore) SaveSummary(summary core.SessionSummary) error {
	dir := filepath.Join(s.root, "summaries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create summaries dir: %w", err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", summary.Collector, summary.SessionID)
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// SaveArtifact writes an opaque rendered document under artifacts/<kind>/.
func (s *FileStore) SaveArtifact(kind, name string, data []byte) error {
	dir := filepath.Join(s.root, "artifacts", kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// Prune deletes snapshot and aggregation files older than the given instant
// based on the timestamp encoded in their names. Files with unparseable
// names are left alone.
func (s *FileStore) Prune(before time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read store root: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		collector := entry.Name()
		for _, dir := range []string{s.snapshotDir(collector), s.aggregationDir(collector)} {
			n, err := pruneDir(dir, before)
			if err != nil {
				s.logger.Warn("retention cleanup failed", "dir", dir, "error", err)
				continue
			}
			removed += n
		}
	}
	return removed, nil
}

func pruneDir(dir string, before time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		ts, ok := artifactTimestamp(entry.Name())
		if !ok {
			continue
		}
		if !ts.Before(before) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// artifactTimestamp extracts the unix-millisecond timestamp encoded in
// snap-/agg- file names.
func artifactTimestamp(name string) (time.Time, bool) {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 3 {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
