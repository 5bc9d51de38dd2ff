package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/docsift/docsift/internal/entity"
)

// ToXLSX renders the same rows as ToCSV into an XLSX workbook and
// returns its bytes.
func ToXLSX(docs []entity.DocumentResult, variables []string, opts entity.ExportOptions) ([]byte, error) {
	rows := BuildRows(docs, variables, opts)

	f := excelize.NewFile()
	const sheet = "Results"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	// Widen the document column; variable columns keep the default.
	_ = f.SetColWidth(sheet, "A", "A", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
