package status

// codec.go encodes grading records to table rows and decodes table rows
// back into updates, for both entity modes.
//
// Decoding is tolerant by design: missing cells default to empty, the
// update flag never fails to parse, and an empty plagiarism cell means
// "none". The only hard failures live one level up, in the parser
// (header set and status validation).

import (
	"strconv"
	"strings"

	"github.com/campusops/gradefile/internal/tablefile"
)

// Column names of the member-mode schema, in export order.
var memberColumns = []string{
	"update", "usr_id", "login", "lastname", "firstname",
	"status", "mark", "notice", "comment", "plagiarism", "plag_comment",
}

// Column names of the team-mode schema, in export order.
var teamColumns = []string{
	"update", "team_id", "logins",
	"status", "mark", "notice", "comment", "plagiarism", "plag_comment",
}

// columnsFor returns the schema for a mode.
func columnsFor(mode Mode) []string {
	if mode == ModeTeam {
		return teamColumns
	}
	return memberColumns
}

// headerIndex maps lowercased column names to their position in the
// uploaded header row.
type headerIndex map[string]int

// validateHeader checks that the header row carries exactly the schema's
// column set. Order is free; presence is not. Any difference, extra or
// missing, aborts the parse before a single data row is read.
func validateHeader(header []string, mode Mode) (headerIndex, error) {
	expected := columnsFor(mode)

	idx := make(headerIndex, len(header))
	for i, h := range header {
		name := strings.ToLower(cleanCell(h))
		if name == "" {
			continue
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing, extra []string
	for _, col := range expected {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	want := make(map[string]bool, len(expected))
	for _, col := range expected {
		want[col] = true
	}
	for name := range idx {
		if !want[name] {
			extra = append(extra, name)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return nil, &SchemaMismatchError{Mode: mode, Missing: missing, Extra: extra}
	}
	return idx, nil
}

// decodeRow converts one data row into a StatusUpdate. The status is
// carried raw; normalization and validation happen in the parser, after
// the skip rules have run. A decode never fails.
func decodeRow(row []string, idx headerIndex, mode Mode) StatusUpdate {
	idColumn := "usr_id"
	if mode == ModeTeam {
		idColumn = "team_id"
	}

	return StatusUpdate{
		Update:      parseUpdateFlag(cell(row, idx, "update")),
		TargetID:    parseID(cell(row, idx, idColumn)),
		Status:      Status(cell(row, idx, "status")),
		Mark:        cell(row, idx, "mark"),
		Notice:      cell(row, idx, "notice"),
		Comment:     cell(row, idx, "comment"),
		PlagFlag:    NormalizePlagFlag(cell(row, idx, "plagiarism")),
		PlagComment: cell(row, idx, "plag_comment"),
	}
}

// encodeMemberRow emits the export row for one member. Id columns are
// numeric cells so spreadsheets treat them as numbers; the update flag
// is exported as 0 and must be set by the grader.
func encodeMemberRow(m *Member) []tablefile.Cell {
	return []tablefile.Cell{
		tablefile.Num(0),
		tablefile.Num(float64(m.UserID)),
		tablefile.Str(m.Login),
		tablefile.Str(m.LastName),
		tablefile.Str(m.FirstName),
		tablefile.Str(string(m.Status)),
		tablefile.Str(m.Mark),
		tablefile.Str(m.Notice),
		tablefile.Str(m.Comment),
		tablefile.Str(string(m.PlagFlag)),
		tablefile.Str(m.PlagComment),
	}
}

// encodeTeamRow emits the export row for one team. logins carries the
// comma-separated member logins resolved by the builder.
func encodeTeamRow(t *Team, logins string) []tablefile.Cell {
	return []tablefile.Cell{
		tablefile.Num(0),
		tablefile.Num(float64(t.TeamID)),
		tablefile.Str(logins),
		tablefile.Str(string(t.Status)),
		tablefile.Str(t.Mark),
		tablefile.Str(t.Notice),
		tablefile.Str(t.Comment),
		tablefile.Str(string(t.PlagFlag)),
		tablefile.Str(t.PlagComment),
	}
}

// headerRow emits the schema header for a mode.
func headerRow(mode Mode) []tablefile.Cell {
	cols := columnsFor(mode)
	cells := make([]tablefile.Cell, len(cols))
	for i, c := range cols {
		cells[i] = tablefile.Str(c)
	}
	return cells
}

// cell safely retrieves a cell value from a row by column name.
func cell(row []string, idx headerIndex, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return cleanCell(row[pos])
}

// cleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and stray
// surrounding quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// parseID parses a numeric id, tolerating decimal notation injected by
// spreadsheet writers ("42.0"). Anything unparsable is zero, which the
// parser treats as "no target" and skips.
func parseID(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int64(f)
	}
	return 0
}

// isEmptyRow reports whether every cell is blank. Some writers append a
// blank row when a file ends with a newline; those rows are filtered
// before decoding.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
