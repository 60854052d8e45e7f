// Package store implements the grading store over PostgreSQL.
//
// The tables it expects are documented in schema.sql. All methods go
// through the DBTX interface, so they work against a pool as well as a
// transaction.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campusops/gradefile/internal/status"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrNoRecord is returned when a grading record or assignment does not exist.
var ErrNoRecord = errors.New("no such record")

// Postgres is the PostgreSQL-backed grading store.
type Postgres struct {
	db DBTX
}

// New creates a Postgres grading store.
func New(db DBTX) *Postgres {
	return &Postgres{db: db}
}

var _ status.GradingStore = (*Postgres)(nil)

// ListMembers returns the active, enrolled user ids of an exercise in
// roster order (lastname, firstname). This order defines the row order
// of exported files.
func (p *Postgres) ListMembers(ctx context.Context, exerciseID int64) ([]int64, error) {
	rows, err := p.db.Query(ctx, `
		SELECT m.usr_id
		FROM exercise_members m
		JOIN users u ON u.usr_id = m.usr_id
		WHERE m.exc_id = $1 AND m.active AND u.active
		ORDER BY u.lastname, u.firstname, u.usr_id`,
		exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LookupUsers resolves directory data for the given user ids. Unknown
// ids are simply absent from the result.
func (p *Postgres) LookupUsers(ctx context.Context, ids []int64) ([]status.UserInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := p.db.Query(ctx, `
		SELECT usr_id, login, firstname, lastname
		FROM users
		WHERE usr_id = ANY($1)
		ORDER BY lastname, firstname, usr_id`,
		ids)
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	defer rows.Close()

	var users []status.UserInfo
	for rows.Next() {
		var u status.UserInfo
		if err := rows.Scan(&u.UserID, &u.Login, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetMemberStatus returns the stored grading record for one user.
// Returns ErrNoRecord when the user has never been graded.
func (p *Postgres) GetMemberStatus(ctx context.Context, assignmentID, userID int64) (status.GradeRecord, error) {
	var rec status.GradeRecord
	err := p.db.QueryRow(ctx, `
		SELECT status, mark, notice, comment, plag_flag, plag_comment
		FROM member_status
		WHERE ass_id = $1 AND usr_id = $2`,
		assignmentID, userID).
		Scan(&rec.Status, &rec.Mark, &rec.Notice, &rec.Comment, &rec.PlagFlag, &rec.PlagComment)
	if errors.Is(err, pgx.ErrNoRows) {
		return status.GradeRecord{}, ErrNoRecord
	}
	if err != nil {
		return status.GradeRecord{}, fmt.Errorf("get member status: %w", err)
	}
	return rec, nil
}

// SetMemberStatus upserts status, mark, notice and comment for one user.
// Plagiarism fields are intentionally not written here.
func (p *Postgres) SetMemberStatus(ctx context.Context, assignmentID, userID int64, s status.Status, mark, notice, comment string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO member_status (ass_id, usr_id, status, mark, notice, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ass_id, usr_id) DO UPDATE SET
			status = EXCLUDED.status,
			mark = EXCLUDED.mark,
			notice = EXCLUDED.notice,
			comment = EXCLUDED.comment,
			updated_at = now()`,
		assignmentID, userID, string(s), mark, notice, comment)
	if err != nil {
		return fmt.Errorf("set member status: %w", err)
	}
	return nil
}

// ListTeams returns the teams of an assignment with their current
// member sets, ordered by team id.
func (p *Postgres) ListTeams(ctx context.Context, assignmentID int64) ([]status.TeamInfo, error) {
	rows, err := p.db.Query(ctx, `
		SELECT t.id, tm.usr_id
		FROM teams t
		LEFT JOIN team_members tm ON tm.team_id = t.id
		WHERE t.ass_id = $1
		ORDER BY t.id, tm.usr_id`,
		assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []status.TeamInfo
	for rows.Next() {
		var teamID int64
		var userID pgtype.Int8
		if err := rows.Scan(&teamID, &userID); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}

		if len(teams) == 0 || teams[len(teams)-1].TeamID != teamID {
			teams = append(teams, status.TeamInfo{TeamID: teamID})
		}
		if userID.Valid {
			last := &teams[len(teams)-1]
			last.MemberIDs = append(last.MemberIDs, userID.Int64)
		}
	}
	return teams, rows.Err()
}

// AssignmentUsesTeams reports whether the assignment's type grades teams.
func (p *Postgres) AssignmentUsesTeams(ctx context.Context, assignmentID int64) (bool, error) {
	var usesTeams bool
	err := p.db.QueryRow(ctx,
		`SELECT uses_teams FROM assignments WHERE id = $1`,
		assignmentID).Scan(&usesTeams)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNoRecord
	}
	if err != nil {
		return false, fmt.Errorf("assignment uses teams: %w", err)
	}
	return usesTeams, nil
}

// AssignmentExercise returns the exercise an assignment belongs to.
// The web layer uses it to build the Assignment value for the engine.
func (p *Postgres) AssignmentExercise(ctx context.Context, assignmentID int64) (int64, error) {
	var excID int64
	err := p.db.QueryRow(ctx,
		`SELECT exc_id FROM assignments WHERE id = $1`,
		assignmentID).Scan(&excID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoRecord
	}
	if err != nil {
		return 0, fmt.Errorf("assignment exercise: %w", err)
	}
	return excID, nil
}
