package status

import "context"

// Mode selects how rows are keyed: one per enrolled member or one per
// team. It is fixed once at Init from the assignment's team-usage flag
// and never mixed within one file.
type Mode int

const (
	ModeMember Mode = iota
	ModeTeam
)

func (m Mode) String() string {
	if m == ModeTeam {
		return "team"
	}
	return "member"
}

// Assignment identifies one gradable task within an exercise.
type Assignment struct {
	ID         int64
	ExerciseID int64
}

// Member is the in-memory grading record for one enrolled user,
// owned by the engine for the lifetime of one load/save cycle.
type Member struct {
	UserID    int64
	Login     string
	LastName  string
	FirstName string

	Status      Status
	Mark        string
	Notice      string
	Comment     string
	PlagFlag    PlagFlag
	PlagComment string

	// graded is set when a stored grading record exists; ungraded
	// members carry default values that must not shadow a teammate's
	// real record.
	graded bool
}

// Team groups members that share one logical grade record. The
// displayed status and mark come from the first member with an
// individual grading record; teams do not store a grade of their own.
type Team struct {
	TeamID        int64
	MemberUserIDs []int64

	Status      Status
	Mark        string
	Notice      string
	Comment     string
	PlagFlag    PlagFlag
	PlagComment string
}

// StatusUpdate is one applicable row extracted from an uploaded file.
// TargetID is a user id in member mode and a team id in team mode.
// Updates are transient: produced by parsing, consumed by Apply,
// never persisted themselves.
type StatusUpdate struct {
	Update      bool
	TargetID    int64
	Status      Status
	Mark        string
	Notice      string
	Comment     string
	PlagFlag    PlagFlag
	PlagComment string
}

// UserInfo is a user directory entry.
type UserInfo struct {
	UserID    int64
	Login     string
	FirstName string
	LastName  string
}

// GradeRecord is the stored per-assignment grading state of one user.
type GradeRecord struct {
	Status      Status
	Mark        string
	Notice      string
	Comment     string
	PlagFlag    PlagFlag
	PlagComment string
}

// TeamInfo is a stored team with its current member set, in the
// store's enumeration order.
type TeamInfo struct {
	TeamID    int64
	MemberIDs []int64
}

// GradingStore is the external system of record for grading state.
// The engine only reads and writes through this interface; schema and
// persistence mechanics belong to the implementation.
type GradingStore interface {
	// ListMembers returns the user ids enrolled in an exercise, in
	// enumeration order.
	ListMembers(ctx context.Context, exerciseID int64) ([]int64, error)

	// LookupUsers resolves directory data for the given user ids.
	LookupUsers(ctx context.Context, ids []int64) ([]UserInfo, error)

	// GetMemberStatus returns the stored grading record for one user.
	GetMemberStatus(ctx context.Context, assignmentID, userID int64) (GradeRecord, error)

	// SetMemberStatus writes status, mark, notice and comment for one user.
	SetMemberStatus(ctx context.Context, assignmentID, userID int64, s Status, mark, notice, comment string) error

	// ListTeams returns the teams of an assignment with their members.
	ListTeams(ctx context.Context, assignmentID int64) ([]TeamInfo, error)

	// AssignmentUsesTeams reports whether the assignment type grades teams.
	AssignmentUsesTeams(ctx context.Context, assignmentID int64) (bool, error)
}
