package lookup

import (
	"context"

	"github.com/sells-group/shopfloor/internal/db"
)

const defaultRecentLots = 10

var recentLotsSQL = `
SELECT lote
  FROM (
	SELECT DISTINCT ` + db.TrimmedText("lote_antecipado") + ` AS lote
	  FROM ` + db.QuoteTable(productionOrderTable) + `
	 WHERE lote_antecipado IS NOT NULL
  ) l
 WHERE lote IS NOT NULL
 ORDER BY lote DESC
 LIMIT $1`

// RecentLots returns the most recent distinct production lots (lote
// antecipado), newest first. n is clamped like a search limit with a default
// of 10.
func (e *Engine) RecentLots(ctx context.Context, n int) ([]string, error) {
	n = ClampLimit(n, defaultRecentLots, e.opts.MaxLimit)

	qctx, cancel := db.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	rows, err := e.pool.Query(qctx, recentLotsSQL, n)
	if err != nil {
		return nil, storeFailure("recent lots", err, "lookup: recent lots query")
	}
	defer rows.Close()

	lots := make([]string, 0, n)
	for rows.Next() {
		var lot string
		if err := rows.Scan(&lot); err != nil {
			return nil, storeFailure("recent lots", err, "lookup: scan lot")
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("recent lots", err, "lookup: iterate lots")
	}
	return lots, nil
}
