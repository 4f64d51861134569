package audit

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationLockKey = 7305114

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// NewPostgres creates a PostgresStore. closeFn runs on Close and may be nil
// when the pool is owned elsewhere.
func NewPostgres(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn, now: time.Now}
}

// Migrate applies pending migrations in lexicographic order inside one
// transaction. The advisory lock is transaction-scoped, so it is released on
// commit or rollback on the same connection that took it.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "audit: begin migration transaction")
	}
	if err := migrateTx(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			zap.L().Warn("audit: rollback migrations", zap.Error(rbErr))
		}
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "audit: commit migrations")
}

func migrateTx(ctx context.Context, tx pgx.Tx) error {
	log := zap.L().With(zap.String("component", "audit.migrate"))

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return eris.Wrap(err, "audit: acquire migration advisory lock")
	}

	if _, err := tx.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS shopfloor_audit;
		CREATE TABLE IF NOT EXISTS shopfloor_audit.schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`); err != nil {
		return eris.Wrap(err, "audit: ensure migration table")
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	applied, err := appliedMigrations(ctx, tx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if applied[name] {
			continue
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return eris.Wrapf(err, "audit: read migration %s", name)
		}

		log.Info("applying migration", zap.String("file", name))
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return eris.Wrapf(err, "audit: apply migration %s", name)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO shopfloor_audit.schema_migrations (filename) VALUES ($1)", name,
		); err != nil {
			return eris.Wrapf(err, "audit: record migration %s", name)
		}
	}
	return nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "audit: read migration dir")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func appliedMigrations(ctx context.Context, tx pgx.Tx) (map[string]bool, error) {
	rows, err := tx.Query(ctx, "SELECT filename FROM shopfloor_audit.schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "audit: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "audit: scan migration row")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// Record implements Recorder.
func (s *PostgresStore) Record(ctx context.Context, e Entry) (*Entry, error) {
	stamp(&e, s.now)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO shopfloor_audit.query_log
			(id, action, subject, query, result_count, outcome, duration_ms, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, string(e.Action), e.Subject, e.Query, e.ResultCount, e.Outcome,
		e.Duration.Milliseconds(), e.RequestID, e.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: insert %s entry", e.Action)
	}
	return &e, nil
}

// Recent returns the newest entries first.
func (s *PostgresStore) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, action, subject, query, result_count, outcome, duration_ms, request_id, created_at
		   FROM shopfloor_audit.query_log
		  WHERE ($1 = '' OR action = $1)
		    AND ($2 = '' OR subject = $2)
		  ORDER BY created_at DESC
		  LIMIT $3`,
		string(f.Action), f.Subject, f.limit(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "audit: query recent entries")
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
			return nil, eris.Wrap(err, "audit: scan entry")
		}
		e.Action = Action(action)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "audit: iterate entries")
	}
	return entries, nil
}

// Close releases the pool when this store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
