package lookup

import "github.com/sells-group/shopfloor/internal/model"

// Limits applied to search requests.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ExcludedItemPrefixes are the raw-material and packaging categories left out
// of parts lists.
var ExcludedItemPrefixes = []string{"06.MP", "02.MP", "07.MP", "08.EM", "01.MP"}

// SearchSource describes one historical table searched by code: the matched
// columns and the detail fields reported for every hit.
type SearchSource struct {
	Table      model.SourceTable
	Relation   string
	Columns    []model.MatchedColumn
	Fields     []string
	ModelField string
}

// SearchSources is the fixed set of tables and columns searched by code.
var SearchSources = []SearchSource{
	{
		Table:      model.TableOrderHistory,
		Relation:   "public.historico_op_glide",
		Columns:    []model.MatchedColumn{model.ColumnOrder, model.ColumnProductionOrder},
		Fields:     model.OrderDetailFields,
		ModelField: "modelo",
	},
	{
		Table:      model.TableOrderHistoryScoped,
		Relation:   "public.historico_op_glide_escopo",
		Columns:    []model.MatchedColumn{model.ColumnOrder, model.ColumnProductionOrder},
		Fields:     model.OrderDetailFields,
		ModelField: "modelo",
	},
	{
		Table:      model.TableInvoiceHistory,
		Relation:   "public.historico_pedido",
		Columns:    []model.MatchedColumn{model.ColumnInvoice, model.ColumnProductionOrder, model.ColumnOrder},
		Fields:     model.InvoiceDetailFields,
		ModelField: "codigo_do_produto",
	},
}

// Product catalog tables used for image enrichment.
const (
	productTable      = "public.omie_produto"
	productImageTable = "public.omie_produto_imagem"
)

// Production tables used by the parts list.
const (
	productionOrderTable = "public.historico_op_iapp"
	structureTable       = "public.historico_estrutura_iapp"
)

// Account tables shared with the login service.
const (
	userTable          = "public.auth_user"
	userOperationTable = "public.auth_user_operacao"
	operationTable     = "public.omie_operacao"
)
