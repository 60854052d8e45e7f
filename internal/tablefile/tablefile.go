// Package tablefile provides loading and saving of tabular files.
//
// Two encodings are supported behind one Codec interface: delimited text
// (CSV) and the XLSX spreadsheet container. Loading always yields string
// cells; saving accepts typed cells so that spreadsheet writers can emit
// real numeric cells where it matters.
package tablefile

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies a table file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Cell is one typed value in an output row. Value is either a string
// or a float64; anything else is stringified on save.
type Cell struct {
	Value any
}

// Str returns a string cell.
func Str(s string) Cell { return Cell{Value: s} }

// Num returns a numeric cell.
func Num(f float64) Cell { return Cell{Value: f} }

// Codec loads and saves table rows in one encoding.
type Codec interface {
	// Load reads all rows. Cell values are returned as strings.
	Load(r io.Reader) ([][]string, error)

	// Save writes all rows, preserving cell types where the encoding can.
	Save(w io.Writer, rows [][]Cell) error
}

// ParseFormat maps a user-supplied format name to a Format.
// The legacy binary .xls container is recognized but rejected: no
// maintained Go library writes it, and every spreadsheet application
// that reads .xls also reads .xlsx.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel", "":
		return FormatXLSX, nil
	case "xls":
		return "", fmt.Errorf("legacy binary .xls is not supported, use xlsx or csv")
	default:
		return "", fmt.Errorf("unknown table format %q (supported: csv, xlsx)", name)
	}
}

// FormatForPath derives the format from a file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ParseFormat(ext)
}

// For returns the codec for a format.
func For(f Format) Codec {
	if f == FormatCSV {
		return CSVCodec{}
	}
	return XLSXCodec{}
}

// Extension returns the file extension for a format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type to serve files of this format with.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
