// Package model defines the request-scoped entities produced by the lookup engine.
package model

// SourceTable identifies the historical table a search match came from.
type SourceTable string

// Historical record tables searched by code.
const (
	TableOrderHistory       SourceTable = "historico_op_glide"
	TableOrderHistoryScoped SourceTable = "historico_op_glide_escopo"
	TableInvoiceHistory     SourceTable = "historico_pedido"
)

// MatchedColumn names the column a search term matched.
type MatchedColumn string

// Searchable columns.
const (
	ColumnOrder           MatchedColumn = "pedido"
	ColumnProductionOrder MatchedColumn = "ordem_de_producao"
	ColumnInvoice         MatchedColumn = "nota_fiscal"
)

// SearchMatch is one hit from the code search. Within a (Table, Column) group
// Value is unique.
type SearchMatch struct {
	Table    SourceTable
	Column   MatchedColumn
	Value    string
	Details  Details
	ImageURL *string
}

// ModelRef returns the product/model reference used for image lookup, if any.
func (m SearchMatch) ModelRef() *string {
	if m.Details == nil {
		return nil
	}
	return m.Details.ModelRef()
}
