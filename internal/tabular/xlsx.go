package tabular

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// DefaultSheetName is the sheet written by writeXLSX.
const DefaultSheetName = "Sheet1"

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// readXLSX reads a sheet whose first row holds the column headers. Fully
// blank rows are dropped and short rows are padded with nil cells.
func readXLSX(path string, opts XLSXOptions) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open file %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	t := &Table{}
	for i, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)

		if i == 0 {
			t.Columns = cells
			continue
		}
		if isBlank(cells) {
			continue
		}

		values := make([]any, len(t.Columns))
		for j := 0; j < len(values) && j < len(cells); j++ {
			values[j] = cells[j]
		}
		t.Rows = append(t.Rows, values)
	}

	if t.Columns == nil {
		return nil, eris.Errorf("xlsx: %s has no header row", path)
	}
	return t, nil
}

// writeXLSX writes t to a single-sheet workbook.
func writeXLSX(path string, t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(DefaultSheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range t.Columns {
		header.AddCell().SetString(col)
	}

	for _, values := range t.Rows {
		row := sheet.AddRow()
		for _, v := range values {
			cell := row.AddCell()
			switch val := v.(type) {
			case nil:
			case string:
				cell.SetString(val)
			case int64:
				cell.SetInt64(val)
			case int:
				cell.SetInt64(int64(val))
			case float64:
				cell.SetFloat(val)
			default:
				text, _ := cellText(val)
				cell.SetString(text)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
