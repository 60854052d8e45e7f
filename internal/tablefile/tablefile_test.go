package tablefile

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "csv", input: "csv", want: FormatCSV},
		{name: "xlsx", input: "xlsx", want: FormatXLSX},
		{name: "excel alias", input: "Excel", want: FormatXLSX},
		{name: "empty defaults to xlsx", input: "", want: FormatXLSX},
		{name: "uppercase csv", input: "CSV", want: FormatCSV},
		{name: "legacy xls rejected", input: "xls", wantErr: true},
		{name: "unknown format", input: "ods", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	f, err := FormatForPath("/tmp/status_a17.csv")
	if err != nil {
		t.Fatalf("FormatForPath error = %v", err)
	}
	if f != FormatCSV {
		t.Errorf("FormatForPath = %q, want csv", f)
	}

	if _, err := FormatForPath("/tmp/status.xls"); err == nil {
		t.Error("FormatForPath(.xls) expected error, got nil")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	rows := [][]Cell{
		{Str("update"), Str("usr_id"), Str("login")},
		{Num(0), Num(42), Str("jdoe")},
		{Num(1), Num(7), Str("msmith, jr")},
	}

	var buf bytes.Buffer
	if err := (CSVCodec{}).Save(&buf, rows); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	got, err := CSVCodec{}.Load(&buf)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	want := [][]string{
		{"update", "usr_id", "login"},
		{"0", "42", "jdoe"},
		{"1", "7", "msmith, jr"},
	}
	if len(got) != len(want) {
		t.Fatalf("row count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestCSVLoad_BOMAndRaggedRows(t *testing.T) {
	data := "\xEF\xBB\xBFupdate,usr_id,status\r\n1,42,passed\r\n,,\r\n1,7\r\n"

	rows, err := CSVCodec{}.Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("row count = %d, want 4", len(rows))
	}
	if rows[0][0] != "update" {
		t.Errorf("BOM not stripped from first header cell: %q", rows[0][0])
	}
	if len(rows[3]) != 2 {
		t.Errorf("ragged row length = %d, want 2", len(rows[3]))
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	rows := [][]Cell{
		{Str("update"), Str("team_id"), Str("logins")},
		{Num(0), Num(3), Str("jdoe, msmith")},
	}

	var buf bytes.Buffer
	if err := (XLSXCodec{}).Save(&buf, rows); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	got, err := XLSXCodec{}.Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("row count = %d, want 2", len(got))
	}
	if got[0][1] != "team_id" {
		t.Errorf("header cell = %q, want team_id", got[0][1])
	}
	if got[1][1] != "3" {
		t.Errorf("numeric cell = %q, want 3", got[1][1])
	}
}
