package lookup

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/db"
	"github.com/sells-group/shopfloor/internal/model"
)

// partsSQL resolves the technical sheets linked to a production order through
// the lote_antecipado field and returns their consumption rows, excluding the
// item categories matched by $2.
var partsSQL = `
WITH fichas AS (
	SELECT DISTINCT ` + db.TrimmedText("ficha_tecnica_identificacao") + ` AS ficha
	  FROM ` + db.QuoteTable(productionOrderTable) + `
	 WHERE lote_antecipado IS NOT NULL
	   AND lote_antecipado::text = $1
	   AND ` + db.TrimmedText("ficha_tecnica_identificacao") + ` IS NOT NULL
)
SELECT
	f.ficha AS identificacao_da_ficha_tecnica,
	` + db.TrimmedText("hei.descricao_da_operacao") + ` AS descricao_da_operacao,
	` + db.TrimmedText("hei.identificacao_do_produto") + ` AS identificacao_do_produto,
	` + db.TrimmedText("hei.descricao_do_produto") + ` AS descricao_do_produto,
	` + db.TrimmedText("hei.identificacao_do_produto_consumido") + ` AS identificacao_do_produto_consumido,
	` + db.TrimmedText("hei.descricao_do_produto_consumido") + ` AS descricao_do_produto_consumido,
	hei.quantidade_prevista_de_consumo::float8 AS quantidade_prevista_de_consumo
  FROM ` + db.QuoteTable(structureTable) + ` hei
  JOIN fichas f ON f.ficha = ` + db.TrimmedText("hei.identificacao_da_ficha_tecnica") + `
 WHERE ` + db.TrimmedText("hei.identificacao_do_produto_consumido") + ` IS NOT NULL
   AND NOT (upper(BTRIM(hei.identificacao_do_produto_consumido::text)) LIKE ANY ($2::text[]))
 ORDER BY 1, 2 NULLS LAST, 5`

// ListParts returns the bill of materials of a production order grouped as
// sheet -> operation -> consumed item. An order with no linked sheets yields an
// empty sheet list, not an error.
func (e *Engine) ListParts(ctx context.Context, productionOrder string) (*model.PartsListResult, error) {
	order := strings.TrimSpace(productionOrder)
	if order == "" {
		return nil, invalidArgument("list parts", "production order is required")
	}

	rows, err := e.queryParts(ctx, order)
	if err != nil {
		return nil, err
	}

	result := Group(order, rows, e.opts.ExcludedPrefixes)

	zap.L().Info("lookup: parts list",
		zap.String("order", order),
		zap.Int("rows", len(rows)),
		zap.Int("sheets", len(result.Sheets)),
		zap.Int("items", result.ItemCount()),
	)
	return result, nil
}

func (e *Engine) queryParts(ctx context.Context, order string) ([]model.PartsRow, error) {
	qctx, cancel := db.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	rows, err := e.pool.Query(qctx, partsSQL, order, e.excludePatterns)
	if err != nil {
		return nil, storeFailure("list parts", err, "lookup: parts query")
	}
	defer rows.Close()

	var out []model.PartsRow
	for rows.Next() {
		var r model.PartsRow
		if err := rows.Scan(
			&r.SheetID, &r.OperationDescription, &r.ProductID, &r.ProductDescription,
			&r.ConsumedItemID, &r.ConsumedItemDescription, &r.ExpectedQuantity,
		); err != nil {
			return nil, storeFailure("list parts", err, "lookup: scan parts row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("list parts", err, "lookup: iterate parts rows")
	}
	return out, nil
}
