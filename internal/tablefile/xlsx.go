package tablefile

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetName is the single worksheet used in exported workbooks.
const sheetName = "Status"

// XLSXCodec reads and writes XLSX workbooks via excelize.
//
// Only the first worksheet is read; exported workbooks carry exactly one.
type XLSXCodec struct{}

// Load reads all rows from the first worksheet of an XLSX file.
func (XLSXCodec) Load(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

// Save writes rows to a new single-sheet workbook. Numeric cells are
// written as numbers so spreadsheet applications treat them as such.
func (XLSXCodec) Save(w io.Writer, rows [][]Cell) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		values := make([]any, len(row))
		for j, c := range row {
			values[j] = c.Value
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
