package store

// #region imports
import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"refocusd/internal/activity"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS activity_spans (
	span_id          TEXT PRIMARY KEY,
	started_at       TEXT NOT NULL,
	app              TEXT NOT NULL,
	window_title     TEXT,
	url              TEXT,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	category         TEXT NOT NULL,
	alignment        TEXT NOT NULL,
	commitment       TEXT
);

CREATE INDEX IF NOT EXISTS idx_activity_spans_started
ON activity_spans(started_at);

CREATE TABLE IF NOT EXISTS interventions (
	intervention_id TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	trigger_type    TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	action          TEXT NOT NULL,
	message         TEXT,
	response        TEXT NOT NULL,
	refocus_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_interventions_created
ON interventions(created_at);

CREATE TABLE IF NOT EXISTS gate_decisions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT NOT NULL,
	pattern     TEXT NOT NULL,
	confidence  REAL NOT NULL,
	decision    TEXT NOT NULL,
	reason      TEXT
);
`

// timeFormat is fixed-width UTC nanoseconds, so the TEXT timestamp
// columns compare and sort lexicographically in chronological order.
// RFC3339Nano trims trailing fractional zeros, which breaks that.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// #endregion schema

// #region store-struct
// Store keeps activity spans, intervention mirror rows, and gate decision
// provenance in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region insert-span
// InsertSpan writes an activity span and returns its id. The duration may
// still be zero; UpdateSpanDuration back-fills it when the span closes.
func (s *Store) InsertSpan(rec activity.Record) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.Exec(
		`INSERT INTO activity_spans
		 (span_id, started_at, app, window_title, url, duration_seconds, category, alignment, commitment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		rec.Timestamp.UTC().Format(timeFormat),
		rec.App,
		nullIfEmpty(rec.WindowTitle),
		nullIfEmpty(rec.URL),
		int64(rec.Duration.Seconds()),
		string(rec.Category),
		string(rec.Alignment),
		nullIfEmpty(rec.Commitment),
	)
	if err != nil {
		return "", fmt.Errorf("insert span: %w", err)
	}
	return id, nil
}

// UpdateSpanDuration back-fills the duration of a closed span.
func (s *Store) UpdateSpanDuration(id string, d time.Duration) error {
	if d < 0 {
		d = 0
	}
	res, err := s.db.Exec(
		`UPDATE activity_spans SET duration_seconds = ? WHERE span_id = ?`,
		int64(d.Seconds()), id,
	)
	if err != nil {
		return fmt.Errorf("update span duration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("span %s not found", id)
	}
	return nil
}

// #endregion insert-span

// #region span-queries
// SpansSince returns spans started at or after the cutoff, oldest first.
func (s *Store) SpansSince(cutoff time.Time) ([]activity.Record, error) {
	rows, err := s.db.Query(
		`SELECT span_id, started_at, app, window_title, url, duration_seconds, category, alignment, commitment
		 FROM activity_spans WHERE started_at >= ? ORDER BY started_at ASC`,
		cutoff.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("query spans: %w", err)
	}
	defer rows.Close()

	var records []activity.Record
	for rows.Next() {
		var rec activity.Record
		var startedStr string
		var title, url, commitment sql.NullString
		var durationSec int64
		if err := rows.Scan(&rec.ID, &startedStr, &rec.App, &title, &url, &durationSec,
			(*string)(&rec.Category), (*string)(&rec.Alignment), &commitment); err != nil {
			return nil, fmt.Errorf("scan span: %w", err)
		}
		rec.Timestamp, _ = time.Parse(timeFormat, startedStr)
		rec.WindowTitle = title.String
		rec.URL = url.String
		rec.Commitment = commitment.String
		rec.Duration = time.Duration(durationSec) * time.Second
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion span-queries

// #region cleanup
// Cleanup purges spans, intervention rows, and gate decisions older than
// the retention window. Returns the total number of rows removed.
func (s *Store) Cleanup(now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := now.UTC().AddDate(0, 0, -retentionDays).Format(timeFormat)

	var total int64
	for _, q := range []string{
		`DELETE FROM activity_spans WHERE started_at < ?`,
		`DELETE FROM interventions WHERE created_at < ?`,
		`DELETE FROM gate_decisions WHERE created_at < ?`,
	} {
		res, err := s.db.Exec(q, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// #endregion cleanup

// #region helpers
func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// #endregion helpers
