package status

// sheet.go orchestrates whole-table encode and decode: the Parser turns
// uploaded rows into applicable updates, the Builder renders the loaded
// dataset as export rows.

import (
	"context"
	"strings"

	"github.com/campusops/gradefile/internal/tablefile"
)

// Parser extracts validated updates from the rows of an uploaded file.
type Parser struct {
	mode    Mode
	members map[int64]*Member
	teams   map[int64]*Team
}

// NewParser creates a parser bound to the currently loaded entity set.
// Rows referencing targets outside that set are skipped, never applied.
func NewParser(mode Mode, members map[int64]*Member, teams map[int64]*Team) *Parser {
	return &Parser{mode: mode, members: members, teams: teams}
}

// Parse validates the header, filters blank rows and decodes the rest.
//
// Per row: a zero or unknown target id and a false update flag skip the
// row silently; an unnormalizable status on a row that survived those
// gates aborts the whole parse. In team mode, skipped rows are counted,
// and a file that yields zero updates despite skipped candidates fails
// with NoValidUpdatesError so the uploader learns why nothing happened.
func (p *Parser) Parse(rows [][]string) ([]StatusUpdate, error) {
	if len(rows) == 0 {
		return nil, &SchemaMismatchError{Mode: p.mode, Missing: columnsFor(p.mode)}
	}

	idx, err := validateHeader(rows[0], p.mode)
	if err != nil {
		return nil, err
	}

	var updates []StatusUpdate
	skipped := 0

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}

		upd := decodeRow(row, idx, p.mode)

		if upd.TargetID == 0 {
			continue
		}
		if !upd.Update {
			if p.mode == ModeTeam {
				skipped++
			}
			continue
		}
		if !p.knownTarget(upd.TargetID) {
			if p.mode == ModeTeam {
				skipped++
			}
			continue
		}

		upd.Status = NormalizeStatus(string(upd.Status))
		if err := ValidateStatus(upd.Status); err != nil {
			return nil, err
		}

		updates = append(updates, upd)
	}

	if p.mode == ModeTeam && len(updates) == 0 && skipped > 0 {
		return nil, &NoValidUpdatesError{SkippedRows: skipped}
	}

	return updates, nil
}

func (p *Parser) knownTarget(id int64) bool {
	if p.mode == ModeTeam {
		_, ok := p.teams[id]
		return ok
	}
	_, ok := p.members[id]
	return ok
}

// Builder renders the loaded dataset as table rows: the schema header
// followed by one row per entity in dataset load order.
type Builder struct {
	mode    Mode
	store   GradingStore
	members []*Member
	teams   []*Team
	index   map[int64]*Member
}

// NewBuilder creates a builder over the loaded entity set. The store is
// only consulted to resolve logins of team members that are not part of
// the loaded member set.
func NewBuilder(mode Mode, store GradingStore, members []*Member, teams []*Team, index map[int64]*Member) *Builder {
	return &Builder{mode: mode, store: store, members: members, teams: teams, index: index}
}

// Build emits the full table. An assignment with no members produces a
// file containing only the header row; that is a valid export.
func (b *Builder) Build(ctx context.Context) [][]tablefile.Cell {
	rows := [][]tablefile.Cell{headerRow(b.mode)}

	if b.mode == ModeTeam {
		for _, t := range b.teams {
			rows = append(rows, encodeTeamRow(t, b.teamLogins(ctx, t)))
		}
		return rows
	}

	for _, m := range b.members {
		rows = append(rows, encodeMemberRow(m))
	}
	return rows
}

// teamLogins joins the logins of a team's members. Members missing from
// the loaded set fall back to a directory lookup so the exported row
// still names everyone; ids the directory cannot resolve are left out.
func (b *Builder) teamLogins(ctx context.Context, t *Team) string {
	logins := make([]string, 0, len(t.MemberUserIDs))
	var unknown []int64

	for _, id := range t.MemberUserIDs {
		if m, ok := b.index[id]; ok {
			logins = append(logins, m.Login)
		} else {
			unknown = append(unknown, id)
		}
	}

	if len(unknown) > 0 && b.store != nil {
		if users, err := b.store.LookupUsers(ctx, unknown); err == nil {
			for _, u := range users {
				logins = append(logins, u.Login)
			}
		}
	}

	return strings.Join(logins, ", ")
}
