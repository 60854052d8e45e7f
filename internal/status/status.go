// Package status implements the grading-status exchange engine.
//
// The engine converts the persisted grading dataset of one assignment
// (per-member or per-team pass/fail status, mark, notice, comment and
// plagiarism flag) to a tabular file and back, and reconciles edited
// files into validated updates that can be applied to the grading store.
package status

import (
	"strconv"
	"strings"
)

// Status is the canonical grading status.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusNotGraded Status = "notgraded"
)

// statusSynonyms maps lowercased free-text tokens to canonical statuses.
// The table covers English, German and symbolic variants seen in
// hand-edited files. It is immutable; normalization never mutates it.
var statusSynonyms = map[string]Status{
	"passed":    StatusPassed,
	"bestanden": StatusPassed,
	"ok":        StatusPassed,
	"success":   StatusPassed,
	"1":         StatusPassed,
	"yes":       StatusPassed,
	"ja":        StatusPassed,

	"failed":          StatusFailed,
	"not passed":      StatusFailed,
	"nicht bestanden": StatusFailed,
	"fail":            StatusFailed,
	"0":               StatusFailed,
	"no":              StatusFailed,
	"nein":            StatusFailed,

	"notgraded":      StatusNotGraded,
	"not graded":     StatusNotGraded,
	"nicht bewertet": StatusNotGraded,
	"pending":        StatusNotGraded,
	"":               StatusNotGraded,
}

// NormalizeStatus maps a free-text status token to its canonical value.
// Unmapped input passes through unchanged rather than being coerced to a
// default, so that ValidateStatus rejects typos explicitly instead of
// silently recording them as "not graded".
func NormalizeStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	if s, ok := statusSynonyms[strings.ToLower(trimmed)]; ok {
		return s
	}
	return Status(trimmed)
}

// Valid reports whether s is one of the three canonical statuses.
func (s Status) Valid() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusNotGraded
}

// ValidateStatus rejects any value that is not canonical. The returned
// error enumerates the accepted values and their documented synonyms so
// uploaders can fix the file without consulting documentation.
func ValidateStatus(s Status) error {
	if s.Valid() {
		return nil
	}
	return &InvalidStatusError{Value: string(s)}
}

// PlagFlag is the plagiarism marker carried alongside the status.
type PlagFlag string

const (
	PlagNone      PlagFlag = "none"
	PlagSuspicion PlagFlag = "suspicion"
	PlagDetected  PlagFlag = "detected"
)

// NormalizePlagFlag maps a free-text plagiarism token to a PlagFlag.
// Empty and unrecognized values normalize to PlagNone; the plagiarism
// column is informational on import and must never fail a row.
func NormalizePlagFlag(raw string) PlagFlag {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "suspicion", "suspected", "verdacht":
		return PlagSuspicion
	case "detected", "plagiarism", "festgestellt":
		return PlagDetected
	default:
		return PlagNone
	}
}

// parseUpdateFlag interprets the update column. Parsing is deliberately
// tolerant and never fails: empty means false, numeric strings are true
// iff non-zero, and the usual boolean spellings are accepted. Anything
// else is false, so stray cell content cannot flag a row for update.
func parseUpdateFlag(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return false
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0
	}

	switch s {
	case "true", "t", "yes", "y", "ja", "x":
		return true
	default:
		return false
	}
}
