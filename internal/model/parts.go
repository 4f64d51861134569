package model

// ConsumedItem is one material consumption line of an operation.
type ConsumedItem struct {
	ID               string
	Description      *string
	ExpectedQuantity *float64
}

// Operation is a manufacturing step of a technical sheet. A nil Description is
// the bucket for rows with no operation description.
type Operation struct {
	Description *string
	Items       []ConsumedItem
}

// TechnicalSheet (ficha técnica) is one bill-of-materials document.
type TechnicalSheet struct {
	ID                 string
	ProductID          *string
	ProductDescription *string
	Operations         []Operation
}

// PartsListResult is the parts list of one production order.
type PartsListResult struct {
	Order  string
	Sheets []TechnicalSheet
}

// ItemCount returns the number of consumed items across all sheets.
func (r *PartsListResult) ItemCount() int {
	n := 0
	for _, s := range r.Sheets {
		for _, op := range s.Operations {
			n += len(op.Items)
		}
	}
	return n
}

// PartsRow is one flat consumption row as returned by the retrieval query.
type PartsRow struct {
	SheetID                 string
	OperationDescription    *string
	ProductID               *string
	ProductDescription      *string
	ConsumedItemID          *string
	ConsumedItemDescription *string
	ExpectedQuantity        *float64
}
