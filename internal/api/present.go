package api

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/shopfloor/internal/model"
)

// SearchResponse is the body of GET /user/busca-codigo.
type SearchResponse struct {
	Term    string         `json:"term"`
	Results []SearchResult `json:"results"`
}

// SearchResult is one search hit on the wire.
type SearchResult struct {
	Table    model.SourceTable   `json:"tabela"`
	Column   model.MatchedColumn `json:"coluna"`
	Value    string              `json:"valor"`
	Details  map[string]string   `json:"detalhes"`
	ImageURL *string             `json:"imagem_url,omitempty"`
}

// NewSearchResponse renders matches. Results is never null.
func NewSearchResponse(term string, matches []model.SearchMatch) SearchResponse {
	resp := SearchResponse{Term: term, Results: make([]SearchResult, 0, len(matches))}
	for _, m := range matches {
		details := map[string]string{}
		if m.Details != nil {
			details = m.Details.Fields()
		}
		resp.Results = append(resp.Results, SearchResult{
			Table:    m.Table,
			Column:   m.Column,
			Value:    m.Value,
			Details:  details,
			ImageURL: m.ImageURL,
		})
	}
	return resp
}

// PartsListResponse is the body of GET /user/lista-pecas.
type PartsListResponse struct {
	Order  string          `json:"ordem,omitempty"`
	Sheets []SheetResponse `json:"fichas"`
}

// SheetResponse is one technical sheet on the wire.
type SheetResponse struct {
	ID         string              `json:"identificacao_da_ficha_tecnica"`
	Product    ProductResponse     `json:"identificacao"`
	Operations []OperationResponse `json:"operacoes"`
}

// ProductResponse identifies the product a sheet builds.
type ProductResponse struct {
	ID          *string `json:"identificacao_do_produto"`
	Description *string `json:"descricao_do_produto"`
}

// OperationResponse groups items under an operation. A null description is
// the bucket for items with no operation.
type OperationResponse struct {
	Description *string        `json:"descricao_da_operacao"`
	Items       []ItemResponse `json:"itens"`
}

// ItemResponse is one consumed item on the wire.
type ItemResponse struct {
	ID                string   `json:"identificacao_do_produto_consumido"`
	Description       *string  `json:"descricao_do_produto_consumido"`
	ExpectedQuantity  *float64 `json:"quantidade_prevista_de_consumo"`
	FormattedQuantity string   `json:"quantidade_prevista_formatada,omitempty"`
}

// ParseLocale parses an optional BCP 47 locale. Empty means no formatting.
func ParseLocale(s string) (*language.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return nil, eris.Wrapf(err, "api: parse locale %q", s)
	}
	return &tag, nil
}

// NewPartsListResponse renders result. With a locale every quantity also
// carries a locale-formatted rendering; the raw number is always present.
func NewPartsListResponse(result *model.PartsListResult, locale *language.Tag) PartsListResponse {
	resp := PartsListResponse{Sheets: []SheetResponse{}}
	if result == nil {
		return resp
	}
	resp.Order = result.Order

	var printer *message.Printer
	if locale != nil {
		printer = message.NewPrinter(*locale)
	}

	for _, s := range result.Sheets {
		sheet := SheetResponse{
			ID:         s.ID,
			Product:    ProductResponse{ID: s.ProductID, Description: s.ProductDescription},
			Operations: make([]OperationResponse, 0, len(s.Operations)),
		}
		for _, op := range s.Operations {
			out := OperationResponse{
				Description: op.Description,
				Items:       make([]ItemResponse, 0, len(op.Items)),
			}
			for _, it := range op.Items {
				item := ItemResponse{
					ID:               it.ID,
					Description:      it.Description,
					ExpectedQuantity: it.ExpectedQuantity,
				}
				if printer != nil && it.ExpectedQuantity != nil {
					item.FormattedQuantity = printer.Sprint(number.Decimal(*it.ExpectedQuantity))
				}
				out.Items = append(out.Items, item)
			}
			sheet.Operations = append(sheet.Operations, out)
		}
		resp.Sheets = append(resp.Sheets, sheet)
	}
	return resp
}

// LotsResponse is the body of GET /user/lotes.
type LotsResponse struct {
	Lots []string `json:"lotes"`
}
