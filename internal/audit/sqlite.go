package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-node
// deployments without a writable Postgres.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS query_log (
	id           TEXT PRIMARY KEY,
	action       TEXT NOT NULL,
	subject      TEXT NOT NULL DEFAULT '',
	query        TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	outcome      TEXT NOT NULL,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	request_id   TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
CREATE INDEX IF NOT EXISTS idx_query_log_subject ON query_log(subject);
CREATE INDEX IF NOT EXISTS idx_query_log_action ON query_log(action);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record implements Recorder.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) (*Entry, error) {
	stamp(&e, s.now)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log (id, action, subject, query, result_count, outcome, duration_ms, request_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), e.Subject, e.Query, e.ResultCount, e.Outcome,
		e.Duration.Milliseconds(), e.RequestID, e.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert %s entry", e.Action)
	}
	return &e, nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, action, subject, query, result_count, outcome, duration_ms, request_id, created_at
		FROM query_log WHERE 1=1`
	var args []any
	if f.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(f.Action))
	}
	if f.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, f.Subject)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query recent entries")
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			action     string
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &action, &e.Subject, &e.Query, &e.ResultCount,
			&e.Outcome, &durationMS, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		e.Action = Action(action)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate entries")
	}
	return entries, nil
}
