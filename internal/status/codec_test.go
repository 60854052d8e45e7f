package status

import (
	"errors"
	"testing"
)

func TestValidateHeader(t *testing.T) {
	memberHeader := []string{
		"update", "usr_id", "login", "lastname", "firstname",
		"status", "mark", "notice", "comment", "plagiarism", "plag_comment",
	}

	tests := []struct {
		name        string
		header      []string
		mode        Mode
		wantErr     bool
		wantMissing []string
		wantExtra   []string
	}{
		{
			name:   "exact member header",
			header: memberHeader,
			mode:   ModeMember,
		},
		{
			name: "order free",
			header: []string{
				"usr_id", "update", "status", "login", "lastname", "firstname",
				"mark", "notice", "comment", "plag_comment", "plagiarism",
			},
			mode: ModeMember,
		},
		{
			name: "case insensitive with whitespace",
			header: []string{
				" Update ", "USR_ID", "login", "lastname", "firstname",
				"Status", "mark", "notice", "comment", "plagiarism", "plag_comment",
			},
			mode: ModeMember,
		},
		{
			name:        "missing column fails",
			header:      memberHeader[:10],
			mode:        ModeMember,
			wantErr:     true,
			wantMissing: []string{"plag_comment"},
		},
		{
			name:      "extra column fails",
			header:    append(append([]string{}, memberHeader...), "grade_points"),
			mode:      ModeMember,
			wantErr:   true,
			wantExtra: []string{"grade_points"},
		},
		{
			name:    "member header against team mode fails",
			header:  memberHeader,
			mode:    ModeTeam,
			wantErr: true,
		},
		{
			name: "exact team header",
			header: []string{
				"update", "team_id", "logins",
				"status", "mark", "notice", "comment", "plagiarism", "plag_comment",
			},
			mode: ModeTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := validateHeader(tt.header, tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateHeader error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var mismatch *SchemaMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("error type = %T, want *SchemaMismatchError", err)
				}
				for _, col := range tt.wantMissing {
					if !contains(mismatch.Missing, col) {
						t.Errorf("Missing = %v, want to contain %q", mismatch.Missing, col)
					}
				}
				for _, col := range tt.wantExtra {
					if !contains(mismatch.Extra, col) {
						t.Errorf("Extra = %v, want to contain %q", mismatch.Extra, col)
					}
				}
				return
			}
			if len(idx) != len(tt.header) {
				t.Errorf("index size = %d, want %d", len(idx), len(tt.header))
			}
		})
	}
}

func TestDecodeRow_MemberDefaults(t *testing.T) {
	idx, err := validateHeader(memberColumns, ModeMember)
	if err != nil {
		t.Fatalf("validateHeader error = %v", err)
	}

	// Short row: everything beyond usr_id is absent.
	upd := decodeRow([]string{"1", "42"}, idx, ModeMember)

	if !upd.Update {
		t.Error("Update = false, want true")
	}
	if upd.TargetID != 42 {
		t.Errorf("TargetID = %d, want 42", upd.TargetID)
	}
	if upd.Mark != "" || upd.Notice != "" || upd.Comment != "" {
		t.Error("absent text cells should decode to empty strings")
	}
	if upd.PlagFlag != PlagNone {
		t.Errorf("PlagFlag = %q, want none for absent cell", upd.PlagFlag)
	}
}

func TestDecodeRow_TeamTargetAndArtifacts(t *testing.T) {
	idx, err := validateHeader(teamColumns, ModeTeam)
	if err != nil {
		t.Fatalf("validateHeader error = %v", err)
	}

	row := []string{"yes", `="7"`, "jdoe, msmith", "bestanden", "1.3", "", "good work", "suspicion", "see notes"}
	upd := decodeRow(row, idx, ModeTeam)

	if !upd.Update {
		t.Error("Update = false, want true for yes")
	}
	if upd.TargetID != 7 {
		t.Errorf("TargetID = %d, want 7 (formula prefix stripped)", upd.TargetID)
	}
	if upd.Mark != "1.3" {
		t.Errorf("Mark = %q, want 1.3", upd.Mark)
	}
	if upd.PlagFlag != PlagSuspicion {
		t.Errorf("PlagFlag = %q, want suspicion", upd.PlagFlag)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{input: "42", want: 42},
		{input: "42.0", want: 42}, // spreadsheet decimal notation
		{input: "", want: 0},
		{input: "abc", want: 0},
		{input: "4.5", want: 0}, // fractional ids are not ids
	}

	for _, tt := range tests {
		if got := parseID(tt.input); got != tt.want {
			t.Errorf("parseID(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestEncodeRows(t *testing.T) {
	m := &Member{
		UserID: 42, Login: "jdoe", LastName: "Doe", FirstName: "Jane",
		Status: StatusPassed, Mark: "1.0", PlagFlag: PlagNone,
	}

	row := encodeMemberRow(m)
	if len(row) != len(memberColumns) {
		t.Fatalf("member row length = %d, want %d", len(row), len(memberColumns))
	}
	if _, ok := row[1].Value.(float64); !ok {
		t.Errorf("usr_id cell type = %T, want float64", row[1].Value)
	}
	if row[5].Value != "passed" {
		t.Errorf("status cell = %v, want passed", row[5].Value)
	}

	tm := &Team{TeamID: 7, Status: StatusNotGraded, PlagFlag: PlagNone}
	teamRow := encodeTeamRow(tm, "jdoe, msmith")
	if len(teamRow) != len(teamColumns) {
		t.Fatalf("team row length = %d, want %d", len(teamRow), len(teamColumns))
	}
	if teamRow[2].Value != "jdoe, msmith" {
		t.Errorf("logins cell = %v, want joined logins", teamRow[2].Value)
	}
}

func TestIsEmptyRow(t *testing.T) {
	if !isEmptyRow([]string{"", "  ", ""}) {
		t.Error("blank row not detected")
	}
	if isEmptyRow([]string{"", "42", ""}) {
		t.Error("non-blank row reported empty")
	}
	if !isEmptyRow(nil) {
		t.Error("nil row should count as empty")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
