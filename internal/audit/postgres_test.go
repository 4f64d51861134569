package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	s := NewPostgres(mock, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	return s, mock
}

// anyArgs matches n arguments of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestMigrate_FreshDB(t *testing.T) {
	s, mock := newMockStore(t)
	names, err := migrationNames()
	require.NoError(t, err)
	require.Equal(t, []string{"001_query_log.sql", "002_query_log_action.sql"}, names)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(migrationLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS shopfloor_audit").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename FROM shopfloor_audit.schema_migrations").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	for _, name := range names {
		mock.ExpectExec("shopfloor_audit.query_log").WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec("INSERT INTO shopfloor_audit.schema_migrations").
			WithArgs(name).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsApplied(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(migrationLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_query_log.sql"))
	mock.ExpectExec("idx_query_log_action").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO shopfloor_audit.schema_migrations").
		WithArgs("002_query_log_action.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The lock is taken with pg_advisory_xact_lock inside the migration
// transaction, never with the session-level pair on the pool, so it cannot
// outlive the transaction on another pooled connection.
func TestMigrate_LockIsTransactionScoped(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SELECT pg_advisory_xact_lock\(\$1\)$`).WithArgs(migrationLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_query_log.sql").AddRow("002_query_log_action.sql"))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	// No pg_advisory_unlock was issued: any extra Exec would be unexpected.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_BeginFails(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin migration transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_LockFailsRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(migrationLockKey).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_ApplyFailsRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(migrationLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename").WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	mock.ExpectExec("shopfloor_audit.query_log").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 001_query_log.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_CommitFails(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(migrationLockKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename").
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_query_log.sql").AddRow("002_query_log_action.sql"))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit migrations")
}

func TestPostgresRecord(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO shopfloor_audit.query_log").
		WithArgs(pgxmock.AnyArg(), "search", "42", "12345", 3, "ok", int64(120), "req-1",
			time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	e, err := s.Record(context.Background(), Entry{
		Action:      ActionSearch,
		Subject:     "42",
		Query:       "12345",
		ResultCount: 3,
		Outcome:     "ok",
		Duration:    120 * time.Millisecond,
		RequestID:   "req-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecord_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO shopfloor_audit.query_log").WithArgs(anyArgs(9)...).WillReturnError(errors.New("read-only transaction"))

	_, err := s.Record(context.Background(), Entry{Action: ActionParts, Query: "OP-1", Outcome: "ok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert parts entry")
}

func TestPostgresRecent(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectQuery("FROM shopfloor_audit.query_log").
		WithArgs("parts", "", 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "action", "subject", "query", "result_count", "outcome", "duration_ms", "request_id", "created_at"}).
			AddRow("a1", "parts", "42", "OP-900", 1, "ok", int64(85), "req-9", at))

	entries, err := s.Recent(context.Background(), Filter{Action: ActionParts})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{
		ID: "a1", Action: ActionParts, Subject: "42", Query: "OP-900", ResultCount: 1,
		Outcome: "ok", Duration: 85 * time.Millisecond, RequestID: "req-9", CreatedAt: at,
	}, entries[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecent_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM shopfloor_audit.query_log").WithArgs("", "", 5).WillReturnError(errors.New("down"))

	_, err := s.Recent(context.Background(), Filter{Limit: 5})
	assert.Error(t, err)
}

func TestPostgresClose(t *testing.T) {
	closed := false
	s := NewPostgres(nil, func() { closed = true })
	require.NoError(t, s.Close())
	assert.True(t, closed)

	assert.NoError(t, NewPostgres(nil, nil).Close())
}

func TestNopRecord(t *testing.T) {
	e, err := Nop{}.Record(context.Background(), Entry{Action: ActionLots})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestFilterLimit(t *testing.T) {
	assert.Equal(t, 20, Filter{}.limit())
	assert.Equal(t, 7, Filter{Limit: 7}.limit())
}
