package lookup

import (
	"strings"

	"github.com/sells-group/shopfloor/internal/model"
)

type opKey struct {
	sheet int
	named bool
	desc  string
}

// Group folds flat consumption rows into sheets, operations and items in one
// pass. First-seen order is kept at every level, so rows already sorted by
// (sheet, operation, item) come out in that order. Rows without a sheet or
// item identifier, and items matching an excluded prefix, are dropped. Rows
// with a blank operation share a single nil-description operation per sheet.
func Group(order string, rows []model.PartsRow, excludedPrefixes []string) *model.PartsListResult {
	result := &model.PartsListResult{
		Order:  order,
		Sheets: []model.TechnicalSheet{},
	}

	sheetIdx := make(map[string]int)
	opIdx := make(map[opKey]int)

	for _, r := range rows {
		sheetID := strings.TrimSpace(r.SheetID)
		itemID := TrimToNil(r.ConsumedItemID)
		if sheetID == "" || itemID == nil || IsExcludedItem(*itemID, excludedPrefixes) {
			continue
		}

		si, ok := sheetIdx[sheetID]
		if !ok {
			si = len(result.Sheets)
			sheetIdx[sheetID] = si
			result.Sheets = append(result.Sheets, model.TechnicalSheet{ID: sheetID})
		}
		sheet := &result.Sheets[si]
		if sheet.ProductID == nil {
			sheet.ProductID = TrimToNil(r.ProductID)
		}
		if sheet.ProductDescription == nil {
			sheet.ProductDescription = TrimToNil(r.ProductDescription)
		}

		desc := TrimToNil(r.OperationDescription)
		key := opKey{sheet: si}
		if desc != nil {
			key.named, key.desc = true, *desc
		}
		oi, ok := opIdx[key]
		if !ok {
			oi = len(sheet.Operations)
			opIdx[key] = oi
			sheet.Operations = append(sheet.Operations, model.Operation{Description: desc})
		}

		op := &sheet.Operations[oi]
		op.Items = append(op.Items, model.ConsumedItem{
			ID:               *itemID,
			Description:      TrimToNil(r.ConsumedItemDescription),
			ExpectedQuantity: r.ExpectedQuantity,
		})
	}

	return result
}

// Flatten is the inverse of Group: one row per consumed item, carrying its
// sheet and operation fields.
func Flatten(result *model.PartsListResult) []model.PartsRow {
	var rows []model.PartsRow
	for _, s := range result.Sheets {
		for _, op := range s.Operations {
			for _, it := range op.Items {
				id := it.ID
				rows = append(rows, model.PartsRow{
					SheetID:                 s.ID,
					OperationDescription:    op.Description,
					ProductID:               s.ProductID,
					ProductDescription:      s.ProductDescription,
					ConsumedItemID:          &id,
					ConsumedItemDescription: it.Description,
					ExpectedQuantity:        it.ExpectedQuantity,
				})
			}
		}
	}
	return rows
}
