package status

// apply.go expands extracted updates into per-member grading-store
// writes. Targets were already filtered against the loaded entity set at
// parse time; the applier does not re-validate, it only resolves.

import (
	"context"
	"fmt"

	"github.com/campusops/gradefile/internal/logging"
)

// Applier performs grading-store writes for extracted updates.
type Applier struct {
	Store        GradingStore
	AssignmentID int64

	// AllowPlagiarismUpdate gates persistence of the plagiarism fields.
	// The fields are parsed and validated, but the write is reserved:
	// even with the flag set, nothing is persisted yet.
	// TODO: persist PlagFlag/PlagComment once the grading store exposes
	// a plagiarism write; until then this stays an explicit no-op so the
	// gap is visible rather than silently dropped.
	AllowPlagiarismUpdate bool
}

// Apply writes each update for every resolved user id. A member update
// targets exactly one user; a team update fans out to every current
// member of the team. A team that is no longer known resolves to no
// users and the update is a no-op for that row.
func (a *Applier) Apply(ctx context.Context, mode Mode, updates []StatusUpdate, teams map[int64]*Team) error {
	written := 0

	for _, upd := range updates {
		for _, userID := range resolveTargets(mode, upd, teams) {
			err := a.Store.SetMemberStatus(ctx, a.AssignmentID, userID, upd.Status, upd.Mark, upd.Notice, upd.Comment)
			if err != nil {
				return fmt.Errorf("write status for user %d: %w", userID, err)
			}
			written++

			if a.AllowPlagiarismUpdate {
				// Reserved, not yet applied: see field comment.
				_ = upd.PlagFlag
				_ = upd.PlagComment
			}
		}
	}

	logging.FromContext(ctx).Info("status updates applied",
		"updates", len(updates), "writes", written, "mode", mode.String())
	return nil
}

// resolveTargets expands one update into the user ids it affects.
func resolveTargets(mode Mode, upd StatusUpdate, teams map[int64]*Team) []int64 {
	if mode != ModeTeam {
		return []int64{upd.TargetID}
	}
	t, ok := teams[upd.TargetID]
	if !ok {
		return nil
	}
	return t.MemberUserIDs
}
