package status

// engine.go is the top-level façade over the exchange: it loads the
// authoritative dataset from the grading store, drives build and parse,
// exposes the extracted updates and applies them back.
//
// One engine instance handles exactly one load-or-save cycle for one
// assignment within one request. There is no locking; concurrent uploads
// for the same assignment race at the grading-store layer.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/campusops/gradefile/internal/logging"
	"github.com/campusops/gradefile/internal/tablefile"
)

// Engine converts between the grading store and status files.
type Engine struct {
	store  GradingStore
	format tablefile.Format

	// AllowPlagiarismUpdate gates persistence of plagiarism fields on
	// apply. The write itself is not wired yet; see Applier.
	AllowPlagiarismUpdate bool

	assignment  Assignment
	mode        Mode
	members     []*Member
	memberIndex map[int64]*Member
	teams       []*Team
	teamIndex   map[int64]*Team

	updates []StatusUpdate
	err     error
	applied bool
}

// NewEngine creates an engine writing exports in the given format.
func NewEngine(store GradingStore, format tablefile.Format) *Engine {
	return &Engine{store: store, format: format}
}

// Init loads members (and teams, when the assignment type grades teams)
// from the grading store and resets all transient state. Lookups fail
// softly: on any store error the affected set is simply empty, so export
// of an empty-but-valid file is always possible.
func (e *Engine) Init(ctx context.Context, assignment Assignment) {
	log := logging.FromContext(ctx)

	e.assignment = assignment
	e.mode = ModeMember
	e.members = nil
	e.memberIndex = make(map[int64]*Member)
	e.teams = nil
	e.teamIndex = make(map[int64]*Team)
	e.updates = nil
	e.err = nil
	e.applied = false

	usesTeams, err := e.store.AssignmentUsesTeams(ctx, assignment.ID)
	if err != nil {
		log.Warn("team-usage lookup failed, assuming member mode",
			"assignment_id", assignment.ID, "error", err)
	} else if usesTeams {
		e.mode = ModeTeam
	}

	e.loadMembers(ctx, assignment)
	if e.mode == ModeTeam {
		e.loadTeams(ctx, assignment)
	}
}

func (e *Engine) loadMembers(ctx context.Context, assignment Assignment) {
	log := logging.FromContext(ctx)

	ids, err := e.store.ListMembers(ctx, assignment.ExerciseID)
	if err != nil {
		log.Warn("member listing failed, continuing with empty set",
			"exercise_id", assignment.ExerciseID, "error", err)
		return
	}

	users, err := e.store.LookupUsers(ctx, ids)
	if err != nil {
		log.Warn("user lookup failed, continuing with empty set",
			"exercise_id", assignment.ExerciseID, "error", err)
		return
	}

	byID := make(map[int64]UserInfo, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	// Dataset order follows the store's enumeration order, not re-sorted.
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}

		m := &Member{
			UserID:    u.UserID,
			Login:     u.Login,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Status:    StatusNotGraded,
			PlagFlag:  PlagNone,
		}

		if rec, err := e.store.GetMemberStatus(ctx, assignment.ID, id); err == nil {
			m.graded = true
			if rec.Status.Valid() {
				m.Status = rec.Status
			}
			m.Mark = rec.Mark
			m.Notice = rec.Notice
			m.Comment = rec.Comment
			if rec.PlagFlag != "" {
				m.PlagFlag = rec.PlagFlag
			}
			m.PlagComment = rec.PlagComment
		}

		e.members = append(e.members, m)
		e.memberIndex[m.UserID] = m
	}
}

func (e *Engine) loadTeams(ctx context.Context, assignment Assignment) {
	log := logging.FromContext(ctx)

	infos, err := e.store.ListTeams(ctx, assignment.ID)
	if err != nil {
		log.Warn("team listing failed, continuing with empty set",
			"assignment_id", assignment.ID, "error", err)
		return
	}

	for _, info := range infos {
		t := &Team{
			TeamID:        info.TeamID,
			MemberUserIDs: info.MemberIDs,
			Status:        StatusNotGraded,
			PlagFlag:      PlagNone,
		}

		// Teams share one logical grade record sourced from the first
		// member that actually has a stored record. Ungraded members
		// carry defaults and are passed over; if nobody has a record,
		// the team keeps its zero-valued placeholder fields.
		for _, id := range info.MemberIDs {
			m, ok := e.memberIndex[id]
			if !ok || !m.graded {
				continue
			}
			t.Status = m.Status
			t.Mark = m.Mark
			t.Notice = m.Notice
			t.Comment = m.Comment
			t.PlagFlag = m.PlagFlag
			t.PlagComment = m.PlagComment
			break
		}

		e.teams = append(e.teams, t)
		e.teamIndex[t.TeamID] = t
	}
}

// Mode reports the entity mode fixed at Init.
func (e *Engine) Mode() Mode { return e.mode }

// Format reports the configured export format.
func (e *Engine) Format() tablefile.Format { return e.format }

// Members returns the loaded member records in dataset order.
func (e *Engine) Members() []*Member { return e.members }

// Teams returns the loaded team records in dataset order.
func (e *Engine) Teams() []*Team { return e.teams }

// Updates returns the updates extracted by the last successful parse.
func (e *Engine) Updates() []StatusUpdate { return e.updates }

// HasError reports whether the engine recorded an error.
func (e *Engine) HasError() bool { return e.err != nil }

// Err returns the recorded error, if any.
func (e *Engine) Err() error { return e.err }

// LoadFromFile reads and parses a status file from disk.
//
// The boolean reports whether a file was read at all: a missing file is
// not an error, it just means no upload has happened yet. Read failures
// are recorded on the engine rather than returned. Structural failures
// (schema, status, zero yield) are recorded and returned, so the caller
// can short-circuit.
func (e *Engine) LoadFromFile(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		e.err = fmt.Errorf("open status file: %w", err)
		return false, nil
	}
	defer f.Close()

	format, err := tablefile.FormatForPath(path)
	if err != nil {
		format = e.format
	}

	return true, e.LoadFrom(ctx, f, format)
}

// LoadFrom parses a status file from a reader. Decode failures of the
// container are recorded on the engine; parse failures are recorded and
// returned.
func (e *Engine) LoadFrom(ctx context.Context, r io.Reader, format tablefile.Format) error {
	e.updates = nil
	e.err = nil
	e.applied = false

	rows, err := tablefile.For(format).Load(r)
	if err != nil {
		e.err = fmt.Errorf("load status file: %w", err)
		return nil
	}

	updates, err := NewParser(e.mode, e.memberIndex, e.teamIndex).Parse(rows)
	if err != nil {
		e.err = err
		return err
	}

	e.updates = updates
	logging.FromContext(ctx).Info("status file parsed",
		"assignment_id", e.assignment.ID, "mode", e.mode.String(), "updates", len(updates))
	return nil
}

// WriteTo rebuilds the table from the loaded dataset and serializes it
// in the engine's configured format. A failure is recorded and returned:
// export failure must stop the caller's response.
func (e *Engine) WriteTo(ctx context.Context, w io.Writer) error {
	rows := NewBuilder(e.mode, e.store, e.members, e.teams, e.memberIndex).Build(ctx)

	if err := tablefile.For(e.format).Save(w, rows); err != nil {
		e.err = fmt.Errorf("write status file: %w", err)
		return e.err
	}
	return nil
}

// WriteToFile writes the export to disk.
func (e *Engine) WriteToFile(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		e.err = fmt.Errorf("create status file: %w", err)
		return e.err
	}
	defer f.Close()

	if err := e.WriteTo(ctx, f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		e.err = fmt.Errorf("close status file: %w", err)
		return e.err
	}
	return nil
}

// Apply writes the extracted updates back to the grading store, fanning
// team updates out to every member.
func (e *Engine) Apply(ctx context.Context) error {
	applier := &Applier{
		Store:                 e.store,
		AssignmentID:          e.assignment.ID,
		AllowPlagiarismUpdate: e.AllowPlagiarismUpdate,
	}
	if err := applier.Apply(ctx, e.mode, e.updates, e.teamIndex); err != nil {
		e.err = err
		return err
	}
	e.applied = true
	return nil
}

// ExportFileName suggests a download name for the current assignment.
func (e *Engine) ExportFileName() string {
	return fmt.Sprintf("status_a%d.%s", e.assignment.ID, e.format.Extension())
}

// Info produces one human-readable line summarizing the engine state:
// the recorded error, "no updates", updates found, or updates applied,
// naming the affected logins or team ids.
func (e *Engine) Info() string {
	if e.err != nil {
		return e.err.Error()
	}
	if len(e.updates) == 0 {
		return "no updates found in the uploaded file"
	}

	names := make([]string, 0, len(e.updates))
	for _, upd := range e.updates {
		if e.mode == ModeTeam {
			names = append(names, fmt.Sprintf("team %d", upd.TargetID))
		} else if m, ok := e.memberIndex[upd.TargetID]; ok {
			names = append(names, m.Login)
		}
	}

	if e.applied {
		return fmt.Sprintf("updates applied for: %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("updates found for: %s", strings.Join(names, ", "))
}
