package tablefile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// CSVCodec reads and writes comma-separated files.
type CSVCodec struct{}

// Load parses CSV data. The reader is lenient: ragged rows and stray
// quotes are tolerated, since exported files are routinely re-saved by
// hand before upload. Invalid UTF-8 is replaced rather than rejected.
func (CSVCodec) Load(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	data = sanitizeUTF8(stripBOM(data))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// Save writes rows as CSV. Typed cells are flattened to text; numeric
// cells use the shortest round-trippable representation.
func (CSVCodec) Save(w io.Writer, rows [][]Cell) error {
	cw := csv.NewWriter(w)
	record := make([]string, 0, 16)

	for _, row := range rows {
		record = record[:0]
		for _, c := range row {
			record = append(record, cellString(c))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// cellString converts a typed cell to its text form.
func cellString(c Cell) string {
	switch v := c.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// stripBOM removes a UTF-8 byte order mark, a common Excel artifact.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
