package db

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// QuoteTable quotes a possibly schema-qualified table name like "public.historico_pedido".
func QuoteTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// QuoteColumn quotes a column name, optionally qualified by a table alias.
func QuoteColumn(alias, column string) string {
	if alias == "" {
		return pgx.Identifier{column}.Sanitize()
	}
	return alias + "." + pgx.Identifier{column}.Sanitize()
}

// TrimmedText renders the SQL expression NULLIF(BTRIM(<col>::text), ''), the
// trim-to-null normalization applied to every text field read from the
// historical tables.
func TrimmedText(expr string) string {
	return "NULLIF(BTRIM(" + expr + "::text), '')"
}
