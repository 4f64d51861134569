package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Details is the per-table detail record attached to a SearchMatch. Each source
// table has a closed set of fields; absent values are nil, never "".
type Details interface {
	// ModelRef returns the catalog reference used to resolve a product image.
	ModelRef() *string
	// Fields returns the present fields keyed by column name.
	Fields() map[string]string

	fields() []field
}

type field struct {
	name  string
	value **string
}

// OrderDetails holds the detail fields shared by both order-history tables.
type OrderDetails struct {
	Order              *string `json:"pedido,omitempty"`
	ProductionOrder    *string `json:"ordem_de_producao,omitempty"`
	Customer           *string `json:"cliente,omitempty"`
	Model              *string `json:"modelo,omitempty"`
	ProductDescription *string `json:"descricao_do_produto,omitempty"`
	Quantity           *string `json:"quantidade,omitempty"`
	IssueDate          *string `json:"data_de_emissao,omitempty"`
	DeliveryDate       *string `json:"data_de_entrega,omitempty"`
	Status             *string `json:"situacao,omitempty"`
}

// OrderDetailFields lists the OrderDetails columns in select order.
var OrderDetailFields = fieldNames((&OrderDetails{}).fields())

// ModelRef implements Details.
func (d *OrderDetails) ModelRef() *string { return d.Model }

// Fields implements Details.
func (d *OrderDetails) Fields() map[string]string { return presentFields(d) }

func (d *OrderDetails) fields() []field {
	return []field{
		{"pedido", &d.Order},
		{"ordem_de_producao", &d.ProductionOrder},
		{"cliente", &d.Customer},
		{"modelo", &d.Model},
		{"descricao_do_produto", &d.ProductDescription},
		{"quantidade", &d.Quantity},
		{"data_de_emissao", &d.IssueDate},
		{"data_de_entrega", &d.DeliveryDate},
		{"situacao", &d.Status},
	}
}

// InvoiceDetails holds the detail fields of the historical invoice/order table.
type InvoiceDetails struct {
	Invoice            *string `json:"nota_fiscal,omitempty"`
	Order              *string `json:"pedido,omitempty"`
	ProductionOrder    *string `json:"ordem_de_producao,omitempty"`
	Customer           *string `json:"cliente,omitempty"`
	ProductCode        *string `json:"codigo_do_produto,omitempty"`
	ProductDescription *string `json:"descricao_do_produto,omitempty"`
	Quantity           *string `json:"quantidade,omitempty"`
	BillingDate        *string `json:"data_de_faturamento,omitempty"`
	TotalValue         *string `json:"valor_total,omitempty"`
}

// InvoiceDetailFields lists the InvoiceDetails columns in select order.
var InvoiceDetailFields = fieldNames((&InvoiceDetails{}).fields())

// ModelRef implements Details.
func (d *InvoiceDetails) ModelRef() *string { return d.ProductCode }

// Fields implements Details.
func (d *InvoiceDetails) Fields() map[string]string { return presentFields(d) }

func (d *InvoiceDetails) fields() []field {
	return []field{
		{"nota_fiscal", &d.Invoice},
		{"pedido", &d.Order},
		{"ordem_de_producao", &d.ProductionOrder},
		{"cliente", &d.Customer},
		{"codigo_do_produto", &d.ProductCode},
		{"descricao_do_produto", &d.ProductDescription},
		{"quantidade", &d.Quantity},
		{"data_de_faturamento", &d.BillingDate},
		{"valor_total", &d.TotalValue},
	}
}

// NewDetails returns an empty Details variant for the given table.
func NewDetails(table SourceTable) (Details, error) {
	switch table {
	case TableOrderHistory, TableOrderHistoryScoped:
		return &OrderDetails{}, nil
	case TableInvoiceHistory:
		return &InvoiceDetails{}, nil
	default:
		return nil, eris.Errorf("model: unknown source table %q", table)
	}
}

// DetailFields returns the fixed field set of a source table.
func DetailFields(table SourceTable) ([]string, error) {
	d, err := NewDetails(table)
	if err != nil {
		return nil, err
	}
	return fieldNames(d.fields()), nil
}

// DecodeDetails decodes a JSON object into the table's Details variant and
// normalizes it. Keys outside the table's field set are ignored.
func DecodeDetails(table SourceTable, raw []byte) (Details, error) {
	d, err := NewDetails(table)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, eris.Wrapf(err, "model: decode %s details", table)
		}
	}
	NormalizeDetails(d)
	return d, nil
}

// NormalizeDetails trims every field and turns blank values into nil.
func NormalizeDetails(d Details) {
	for _, f := range d.fields() {
		*f.value = trimToNil(*f.value)
	}
}

func presentFields(d Details) map[string]string {
	out := make(map[string]string)
	for _, f := range d.fields() {
		if v := *f.value; v != nil {
			out[f.name] = *v
		}
	}
	return out
}

func fieldNames(fs []field) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.name
	}
	return names
}

func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
