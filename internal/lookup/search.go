package lookup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/db"
	"github.com/sells-group/shopfloor/internal/model"
)

// Search returns every distinct value of the searched columns that contains
// term, case-insensitively, ordered by (table, column, value).
func (e *Engine) Search(ctx context.Context, term string, limit int) ([]model.SearchMatch, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalidArgument("search", "term is required")
	}
	limit = ClampLimit(limit, e.opts.DefaultLimit, e.opts.MaxLimit)

	matches, err := e.queryMatches(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	e.attachImages(ctx, matches)

	zap.L().Info("lookup: code search",
		zap.String("term", term),
		zap.Int("limit", limit),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

func (e *Engine) queryMatches(ctx context.Context, term string, limit int) ([]model.SearchMatch, error) {
	qctx, cancel := db.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	rows, err := e.pool.Query(qctx, e.searchSQL, containsPattern(term), limit)
	if err != nil {
		return nil, storeFailure("search", err, "lookup: search query")
	}
	defer rows.Close()

	matches := make([]model.SearchMatch, 0)
	for rows.Next() {
		var (
			table, column string
			value         *string
			raw           []byte
		)
		if err := rows.Scan(&table, &column, &value, &raw); err != nil {
			return nil, storeFailure("search", err, "lookup: scan search row")
		}

		value = TrimToNil(value)
		if value == nil {
			continue
		}

		details, err := model.DecodeDetails(model.SourceTable(table), raw)
		if err != nil {
			return nil, storeFailure("search", err, "lookup: decode search row")
		}

		matches = append(matches, model.SearchMatch{
			Table:   model.SourceTable(table),
			Column:  model.MatchedColumn(column),
			Value:   *value,
			Details: details,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("search", err, "lookup: iterate search rows")
	}
	return matches, nil
}

// buildSearchSQL renders the UNION ALL over every (table, column) pair.
// $1 is the ILIKE pattern and $2 the row limit. One representative row is
// kept per (tabela, coluna, valor); ordering uses the C collation so it is
// byte-wise and independent of the database locale.
func buildSearchSQL(sources []SearchSource) string {
	var branches []string
	for _, src := range sources {
		details := make([]string, 0, len(src.Fields))
		for _, f := range src.Fields {
			details = append(details, fmt.Sprintf("'%s', %s", f, db.TrimmedText(db.QuoteColumn("t", f))))
		}
		detailsExpr := "jsonb_strip_nulls(jsonb_build_object(" + strings.Join(details, ", ") + "))"

		for _, col := range src.Columns {
			valueExpr := db.TrimmedText(db.QuoteColumn("t", string(col)))
			branches = append(branches, fmt.Sprintf(
				"SELECT '%s'::text AS tabela, '%s'::text AS coluna, %s AS valor, %s AS detalhes\n"+
					"  FROM %s t\n"+
					" WHERE %s ILIKE $1",
				src.Table, col, valueExpr, detailsExpr,
				db.QuoteTable(src.Relation),
				valueExpr,
			))
		}
	}

	return "WITH matches AS (\n" + strings.Join(branches, "\nUNION ALL\n") + "\n),\n" +
		`picked AS (
SELECT DISTINCT ON (tabela, coluna, valor) tabela, coluna, valor, detalhes
  FROM matches
 WHERE valor IS NOT NULL
 ORDER BY tabela, coluna, valor, detalhes::text
)
SELECT tabela, coluna, valor, detalhes
  FROM picked
 ORDER BY tabela COLLATE "C", coluna COLLATE "C", valor COLLATE "C"
 LIMIT $2`
}
