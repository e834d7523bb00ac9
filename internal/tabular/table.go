// Package tabular reads and writes row-sets as xlsx spreadsheets or JSON
// lists of records, mapping spreadsheet headers to model fields.
package tabular

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a format-neutral sheet: named columns and positional cells.
// Cells read from disk are nil, string, json.Number or bool; cells written
// are nil, string, int64 or float64.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Format selects an on-disk encoding.
type Format string

const (
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
)

// Formats lists the accepted format selectors.
var Formats = []Format{FormatExcel, FormatJSON}

// ParseFormat validates a format selector.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatExcel:
		return FormatExcel, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", eris.Errorf("tabular: unsupported format %q (use excel or json)", s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".xlsx"
}

// FormatFromPath infers the format of an existing file from its extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatExcel, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", eris.Errorf("tabular: cannot infer format of %s", path)
	}
}

// ReadTable reads the table stored at path, choosing the codec by extension.
func ReadTable(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return readJSON(f)
	default:
		return readXLSX(path, XLSXOptions{})
	}
}

// WriteTable writes t to path in the given format, creating parent directories.
func WriteTable(path string, format Format, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "tabular: create dir %s", dir)
		}
	}
	switch format {
	case FormatJSON:
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "tabular: create %s", path)
		}
		if err := writeJSON(f, t); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrapf(f.Close(), "tabular: close %s", path)
	case FormatExcel:
		return writeXLSX(path, t)
	default:
		return eris.Errorf("tabular: unsupported format %q", format)
	}
}
