package lookup

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sells-group/shopfloor/internal/db"
	"github.com/sells-group/shopfloor/internal/model"
)

var userProfileSQL = `
SELECT id, username, COALESCE(roles, '{}'::text[]), COALESCE(is_active, false), created_at, updated_at
  FROM ` + db.QuoteTable(userTable) + `
 WHERE id = $1`

var userOperationsSQL = `
SELECT DISTINCT COALESCE(o.operacao, uo.operacao_id::text) AS operacao
  FROM ` + db.QuoteTable(userOperationTable) + ` uo
  LEFT JOIN ` + db.QuoteTable(operationTable) + ` o ON o.operacao = uo.operacao_id::text
 WHERE uo.user_id = $1
 ORDER BY 1`

// accountID parses a token subject into an account id. Subjects that are not
// account ids match no account.
func accountID(subject string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(subject), 10, 64)
	return id, err == nil
}

// UserProfile returns the account of subject. A subject with no account is
// KindNotFound.
func (e *Engine) UserProfile(ctx context.Context, subject string) (*model.UserProfile, error) {
	id, ok := accountID(subject)
	if !ok {
		return nil, notFound("user profile", "subject is not an account id")
	}

	qctx, cancel := db.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	var p model.UserProfile
	err := e.pool.QueryRow(qctx, userProfileSQL, id).Scan(
		&p.ID, &p.Username, &p.Roles, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user profile", "no account for subject")
	}
	if err != nil {
		return nil, storeFailure("user profile", err, "lookup: user profile query")
	}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	return &p, nil
}

// UserOperations returns the distinct operations assigned to subject, sorted.
// An operation missing from the catalog is reported by its raw id.
func (e *Engine) UserOperations(ctx context.Context, subject string) ([]string, error) {
	id, ok := accountID(subject)
	if !ok {
		return []string{}, nil
	}

	qctx, cancel := db.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	rows, err := e.pool.Query(qctx, userOperationsSQL, id)
	if err != nil {
		return nil, storeFailure("user operations", err, "lookup: user operations query")
	}
	defer rows.Close()

	ops := []string{}
	for rows.Next() {
		var op *string
		if err := rows.Scan(&op); err != nil {
			return nil, storeFailure("user operations", err, "lookup: scan operation")
		}
		if v := TrimToNil(op); v != nil {
			ops = append(ops, *v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("user operations", err, "lookup: iterate operations")
	}
	return ops, nil
}
