package pipeline

import (
	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the merged table as a spreadsheet with the same column
// contract as the CSV output.
func WriteXLSX(path string, rows []MergedRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Sheet1"
	if err := setRow(f, sheet, 1, Header()); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r.Values()); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
