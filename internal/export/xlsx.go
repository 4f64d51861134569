// Package export writes lookup results to spreadsheet files for the floor office.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/shopfloor/internal/lookup"
	"github.com/sells-group/shopfloor/internal/model"
)

// PartsSheetName is the worksheet holding the parts list.
const PartsSheetName = "Lista de pecas"

// PartsHeader is the header row of the parts worksheet.
var PartsHeader = []string{
	"ordem",
	"identificacao_da_ficha_tecnica",
	"identificacao_do_produto",
	"descricao_do_produto",
	"descricao_da_operacao",
	"identificacao_do_produto_consumido",
	"descricao_do_produto_consumido",
	"quantidade_prevista_de_consumo",
}

// WritePartsList writes result as a one-sheet workbook with one row per
// consumed item. Absent values are left as empty cells.
func WritePartsList(w io.Writer, result *model.PartsListResult) error {
	if result == nil {
		return eris.New("export: nil parts list")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(PartsSheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range PartsHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range lookup.Flatten(result) {
		row := sheet.AddRow()
		row.AddCell().SetString(result.Order)
		row.AddCell().SetString(r.SheetID)
		addOptional(row, r.ProductID)
		addOptional(row, r.ProductDescription)
		addOptional(row, r.OperationDescription)
		addOptional(row, r.ConsumedItemID)
		addOptional(row, r.ConsumedItemDescription)
		qty := row.AddCell()
		if r.ExpectedQuantity != nil {
			qty.SetFloat(*r.ExpectedQuantity)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addOptional(row *xlsx.Row, v *string) {
	cell := row.AddCell()
	if v != nil {
		cell.SetString(*v)
	}
}
