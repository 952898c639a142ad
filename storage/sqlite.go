package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/hupe1980/researchmesh/core"
)

// SQLiteStore is a MetricStore backed by a single SQLite database. It trades
// the file store's externally browsable layout for indexed time-range
// queries, which keeps retrieval cheap once many snapshots have accumulated.
//
// Snapshot membership and buffered order are preserved via a per-snapshot
// position column, so reconstructed snapshots round-trip byte-for-byte
// equivalent metric sequences.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	collector  TEXT NOT NULL,
	session_id TEXT NOT NULL,
	timestamp  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_collector ON snapshots(collector, timestamp);

CREATE TABLE IF NOT EXISTS metrics (
	id          TEXT PRIMARY KEY,
	snapshot_id TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	timestamp   INTEGER NOT NULL,
	event_type  TEXT NOT NULL,
	data        TEXT NOT NULL,
	metadata    TEXT,
	position    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metrics_snapshot ON metrics(snapshot_id, position);

CREATE TABLE IF NOT EXISTS aggregations (
	id        TEXT PRIMARY KEY,
	collector TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	document  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_aggregations_collector ON aggregations(collector, timestamp);

CREATE TABLE IF NOT EXISTS baseline (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	document TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS summaries (
	collector  TEXT NOT NULL,
	session_id TEXT NOT NULL,
	document   TEXT NOT NULL,
	PRIMARY KEY (collector, session_id)
);

CREATE TABLE IF NOT EXISTS artifacts (
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (kind, name)
);
`

// NewSQLiteStore opens (creating if necessary) the database at path and
// applies the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection to ":memory:" opens its own empty
		// database; one connection keeps the schema visible everywhere.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveSnapshot persists the snapshot header and its metrics in one
// transaction.
func (s *SQLiteStore) SaveSnapshot(collector string, snap core.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (id, collector, session_id, timestamp) VALUES (?, ?, ?, ?)`,
		snap.ID, collector, snap.SessionID, snap.Timestamp.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for i, m := range snap.Metrics {
		data, err := json.Marshal(m.Data)
		if err != nil {
			return fmt.Errorf("marshal metric data: %w", err)
		}
		var metadata []byte
		if m.Metadata != nil {
			if metadata, err = json.Marshal(m.Metadata); err != nil {
				return fmt.Errorf("marshal metric metadata: %w", err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO metrics (id, snapshot_id, session_id, timestamp, event_type, data, metadata, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, snap.ID, m.SessionID, m.Timestamp.UnixNano(), m.EventType, string(data), nullableString(metadata), i,
		); err != nil {
			return fmt.Errorf("insert metric: %w", err)
		}
	}

	return tx.Commit()
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// Snapshots reconstructs every snapshot for the collector in timestamp
// order, each with its metrics in buffered order.
func (s *SQLiteStore) Snapshots(collector string) ([]core.Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, timestamp FROM snapshots WHERE collector = ? ORDER BY timestamp ASC`,
		collector,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []core.Snapshot
	for rows.Next() {
		var snap core.Snapshot
		var ts int64
		if err := rows.Scan(&snap.ID, &snap.SessionID, &ts); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Timestamp = time.Unix(0, ts).UTC()
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	for i := range snaps {
		metrics, err := s.snapshotMetrics(snaps[i].ID)
		if err != nil {
			return nil, err
		}
		snaps[i].Metrics = metrics
	}
	return snaps, nil
}

func (s *SQLiteStore) snapshotMetrics(snapshotID string) ([]core.Metric, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, timestamp, event_type, data, metadata
		 FROM metrics WHERE snapshot_id = ? ORDER BY position ASC`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []core.Metric
	for rows.Next() {
		var m core.Metric
		var ts int64
		var data string
		var metadata sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &ts, &m.EventType, &data, &metadata); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Timestamp = time.Unix(0, ts).UTC()
		if err := json.Unmarshal([]byte(data), &m.Data); err != nil {
			return nil, fmt.Errorf("unmarshal metric data: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metric metadata: %w", err)
			}
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// SaveAggregation stores the aggregation as a JSON document column.
func (s *SQLiteStore) SaveAggregation(collector string, agg core.Aggregation) error {
	doc, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("marshal aggregation: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO aggregations (id, collector, timestamp, document) VALUES (?, ?, ?, ?)`,
		core.NewID(), collector, agg.Timestamp.UnixNano(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("insert aggregation: %w", err)
	}
	return nil
}

// Aggregations returns stored aggregations in timestamp order.
func (s *SQLiteStore) Aggregations(collector string) ([]core.Aggregation, error) {
	rows, err := s.db.Query(
		`SELECT document FROM aggregations WHERE collector = ? ORDER BY timestamp ASC`,
		collector,
	)
	if err != nil {
		return nil, fmt.Errorf("query aggregations: %w", err)
	}
	defer rows.Close()

	var aggs []core.Aggregation
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan aggregation: %w", err)
		}
		var agg core.Aggregation
		if err := json.Unmarshal([]byte(doc), &agg); err != nil {
			return nil, fmt.Errorf("unmarshal aggregation: %w", err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

// LoadBaseline reads the single baseline row.
func (s *SQLiteStore) LoadBaseline() (core.Baseline, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM baseline WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Baseline{}, core.ErrBaselineNotFound
	}
	if err != nil {
		return core.Baseline{}, fmt.Errorf("query baseline: %w", err)
	}
	var b core.Baseline
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return core.Baseline{}, core.ErrBaselineNotFound
	}
	return b, nil
}

// SaveBaseline inserts the baseline row exactly once.
func (s *SQLiteStore) SaveBaseline(b core.Baseline) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	res, err := s.db.Exec(`INSERT OR IGNORE INTO baseline (id, document) VALUES (1, ?)`, string(doc))
	if err != nil {
		return fmt.Errorf("insert baseline: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("baseline rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrBaselineExists
	}
	return nil
}

// SaveSummary upserts the session summary for the collector/session pair.
func (s *SQLiteStore) SaveSummary(summary core.SessionSummary) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO summaries (collector, session_id, document) VALUES (?, ?, ?)`,
		summary.Collector, summary.SessionID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// SaveArtifact upserts an opaque document.
func (s *SQLiteStore) SaveArtifact(kind, name string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO artifacts (kind, name, data) VALUES (?, ?, ?)`,
		kind, name, data,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// Prune deletes snapshots (with their metrics) and aggregations older than
// the given instant. The returned count covers snapshot and aggregation
// documents, matching the file store's semantics.
func (s *SQLiteStore) Prune(before time.Time) (int, error) {
	cutoff := before.UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM metrics WHERE snapshot_id IN (SELECT id FROM snapshots WHERE timestamp < ?)`,
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("prune metrics: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM snapshots WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	snapCount, _ := res.RowsAffected()

	res, err = tx.Exec(`DELETE FROM aggregations WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune aggregations: %w", err)
	}
	aggCount, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return int(snapCount + aggCount), nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
