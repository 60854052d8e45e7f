package status

import (
	"context"
	"errors"
	"testing"
)

func TestApplier_MemberWritesOne(t *testing.T) {
	st := newFakeStore()
	a := &Applier{Store: st, AssignmentID: 5}

	upd := StatusUpdate{Update: true, TargetID: 42, Status: StatusPassed, Mark: "1.0"}
	if err := a.Apply(context.Background(), ModeMember, []StatusUpdate{upd}, nil); err != nil {
		t.Fatalf("Apply error = %v", err)
	}

	if len(st.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(st.writes))
	}
	if st.writes[0].UserID != 42 || st.writes[0].AssignmentID != 5 {
		t.Errorf("write = %+v, want user 42 on assignment 5", st.writes[0])
	}
}

func TestApplier_TeamFansOutToEveryMember(t *testing.T) {
	st := newFakeStore()
	a := &Applier{Store: st, AssignmentID: 5}

	teams := map[int64]*Team{
		7: {TeamID: 7, MemberUserIDs: []int64{42, 43, 44}},
	}
	upd := StatusUpdate{
		Update: true, TargetID: 7,
		Status: StatusFailed, Mark: "5.0", Notice: "resubmit", Comment: "missing part b",
	}

	if err := a.Apply(context.Background(), ModeTeam, []StatusUpdate{upd}, teams); err != nil {
		t.Fatalf("Apply error = %v", err)
	}

	if len(st.writes) != 3 {
		t.Fatalf("writes = %d, want one per team member", len(st.writes))
	}
	seen := make(map[int64]bool)
	for _, w := range st.writes {
		seen[w.UserID] = true
		if w.Status != StatusFailed || w.Mark != "5.0" || w.Notice != "resubmit" || w.Comment != "missing part b" {
			t.Errorf("write = %+v, want identical grade for every member", w)
		}
	}
	for _, id := range []int64{42, 43, 44} {
		if !seen[id] {
			t.Errorf("no write for member %d", id)
		}
	}
}

func TestApplier_UnknownTeamIsNoOp(t *testing.T) {
	st := newFakeStore()
	a := &Applier{Store: st, AssignmentID: 5}

	upd := StatusUpdate{Update: true, TargetID: 99, Status: StatusPassed}
	if err := a.Apply(context.Background(), ModeTeam, []StatusUpdate{upd}, map[int64]*Team{}); err != nil {
		t.Fatalf("Apply error = %v", err)
	}
	if len(st.writes) != 0 {
		t.Errorf("writes = %d, want 0 for vanished team", len(st.writes))
	}
}

func TestApplier_StoreErrorStopsApply(t *testing.T) {
	st := newFakeStore()
	st.setStatusErr = errors.New("constraint violation")
	a := &Applier{Store: st, AssignmentID: 5}

	updates := []StatusUpdate{
		{Update: true, TargetID: 42, Status: StatusPassed},
		{Update: true, TargetID: 43, Status: StatusPassed},
	}
	err := a.Apply(context.Background(), ModeMember, updates, nil)
	if err == nil {
		t.Fatal("Apply = nil, want store error surfaced")
	}
	if !errors.Is(err, st.setStatusErr) {
		t.Errorf("Apply error = %v, want wrapped store error", err)
	}
}
