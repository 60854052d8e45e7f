package status

// errors.go defines the fatal parse errors surfaced to uploaders.
//
// Two failure philosophies coexist deliberately:
//   - Row-level problems (missing cells, false update flag, unknown
//     target) are absorbed silently; the row is simply not collected.
//   - File-level problems (wrong header set, unnormalizable status,
//     zero applicable rows) are fatal and reported with a precise,
//     user-actionable message.
//
// A parse failure guarantees zero grading-store writes: extraction and
// application are separate explicit steps.

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaMismatchError reports that the header row's column set differs
// from the expected schema. Extra and missing columns both fail; no
// best-effort parse proceeds past the header.
type SchemaMismatchError struct {
	Mode    Mode
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "file header does not match the %s status file layout", e.Mode)
	if len(e.Missing) > 0 {
		sorted := append([]string(nil), e.Missing...)
		sort.Strings(sorted)
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(sorted, ", "))
	}
	if len(e.Extra) > 0 {
		sorted := append([]string(nil), e.Extra...)
		sort.Strings(sorted)
		fmt.Fprintf(&b, "; unexpected columns: %s", strings.Join(sorted, ", "))
	}
	b.WriteString(". Export a fresh file and edit it without renaming, adding or removing columns.")
	return b.String()
}

// InvalidStatusError reports a flagged, known-target row whose status
// could not be normalized to a canonical value.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf(
		"invalid status value %q: use one of passed (bestanden, ok, success, 1, yes, ja), "+
			"failed (not passed, nicht bestanden, fail, 0, no, nein) or "+
			"notgraded (not graded, nicht bewertet, pending, empty cell)",
		e.Value)
}

// NoValidUpdatesError reports a structurally valid file that yielded no
// applicable rows although at least one row was considered and skipped.
// It carries a checklist of the likely causes.
type NoValidUpdatesError struct {
	SkippedRows int
}

func (e *NoValidUpdatesError) Error() string {
	return fmt.Sprintf(
		"no applicable update rows found (%d rows skipped). Check that: "+
			"the update column is set to 1 on rows you want applied, "+
			"each team id matches a team of this assignment, "+
			"and the status is a recognized value",
		e.SkippedRows)
}
