package domain

import "testing"

const (
	creator  int64 = 1
	assignee int64 = 2
	stranger int64 = 3
)

func recordIn(t *testing.T, st Status) *Record {
	t.Helper()
	s := validSnapshot(st)
	s.CreatedByID = creator
	a := assignee
	s.AssignedToID = &a
	return mustReconstruct(t, s, FixedClock(t0))
}

func actor(id int64, roles ...Role) Actor {
	return Actor{ID: id, Roles: NewRoleSet(roles...)}
}

func TestCanView(t *testing.T) {
	r := recordIn(t, StatusRequested)
	cases := []struct {
		a    Actor
		want bool
	}{
		{actor(creator), true},
		{actor(assignee), true},
		{actor(stranger), false},
		{actor(stranger, RoleUser), false},
		{actor(stranger, RoleAdmin), true},
		{actor(stranger, RoleViewer), true},
		{actor(stranger, RoleOperator), true},
		{actor(stranger, RoleCoordinator), true},
	}
	for _, tc := range cases {
		if got := CanView(tc.a, r); got != tc.want {
			t.Errorf("CanView(%d %v) = %v; want %v", tc.a.ID, tc.a.Roles.Strings(), got, tc.want)
		}
	}
}

func TestCheckEdit(t *testing.T) {
	cases := []struct {
		name   string
		a      Actor
		st     Status
		want   bool
		reason DenyReason
	}{
		{"creator pending", actor(creator), StatusRequested, true, ReasonNone},
		{"creator in progress", actor(creator), StatusReleased, false, ReasonNotPending},
		{"creator finalized", actor(creator), StatusFinalized, false, ReasonFinalized},
		{"admin finalized", actor(stranger, RoleAdmin), StatusFinalized, true, ReasonNone},
		{"admin not located", actor(stranger, RoleAdmin), StatusNotLocated, true, ReasonNone},
		{"assignee in progress", actor(assignee), StatusPickedUp, true, ReasonNone},
		{"assignee finalized", actor(assignee), StatusFinalized, false, ReasonFinalized},
		{"operator", actor(stranger, RoleOperator), StatusNotCollected, true, ReasonNone},
		{"coordinator", actor(stranger, RoleCoordinator), StatusReleased, true, ReasonNone},
		{"coordinator finalized", actor(stranger, RoleCoordinator), StatusFinalized, false, ReasonFinalized},
		{"viewer", actor(stranger, RoleViewer), StatusRequested, false, ReasonNotOwner},
		{"stranger", actor(stranger), StatusRequested, false, ReasonNotOwner},
	}
	for _, tc := range cases {
		d := CheckEdit(tc.a, recordIn(t, tc.st))
		if d.Allowed != tc.want || d.Reason != tc.reason {
			t.Errorf("%s: got %+v; want allowed=%v reason=%q", tc.name, d, tc.want, tc.reason)
		}
		if CanEdit(tc.a, recordIn(t, tc.st)) != tc.want {
			t.Errorf("%s: CanEdit disagrees with CheckEdit", tc.name)
		}
	}
}

func TestCheckDelete(t *testing.T) {
	cases := []struct {
		name   string
		a      Actor
		st     Status
		want   bool
		reason DenyReason
	}{
		{"admin pending", actor(stranger, RoleAdmin), StatusRequested, true, ReasonNone},
		{"admin finalized", actor(stranger, RoleAdmin), StatusFinalized, true, ReasonNone},
		{"admin in progress", actor(stranger, RoleAdmin), StatusReleased, false, ReasonInProgress},
		{"creator pending", actor(creator), StatusRequested, true, ReasonNone},
		{"creator not collected", actor(creator), StatusNotCollected, true, ReasonNone},
		{"creator in progress", actor(creator), StatusRearchiveRequested, false, ReasonInProgress},
		{"creator final", actor(creator), StatusNotLocated, false, ReasonFinalized},
		{"assignee in progress", actor(assignee), StatusPickedUp, true, ReasonNone},
		{"assignee final", actor(assignee), StatusFinalized, false, ReasonFinalized},
		{"operator", actor(stranger, RoleOperator), StatusRequested, false, ReasonNotOwner},
		{"stranger", actor(stranger), StatusRequested, false, ReasonNotOwner},
	}
	for _, tc := range cases {
		d := CheckDelete(tc.a, recordIn(t, tc.st))
		if d.Allowed != tc.want || d.Reason != tc.reason {
			t.Errorf("%s: got %+v; want allowed=%v reason=%q", tc.name, d, tc.want, tc.reason)
		}
	}
}

func TestCheckHardDeleteAndRestore(t *testing.T) {
	if d := CheckHardDelete(actor(creator), recordIn(t, StatusRequested)); d.Allowed || d.Reason != ReasonAdminOnly {
		t.Fatalf("non-admin hard delete: %+v", d)
	}
	if d := CheckHardDelete(actor(stranger, RoleAdmin), recordIn(t, StatusPickedUp)); d.Allowed || d.Reason != ReasonInProgress {
		t.Fatalf("in-progress hard delete: %+v", d)
	}
	if d := CheckHardDelete(actor(stranger, RoleAdmin), recordIn(t, StatusFinalized)); !d.Allowed {
		t.Fatalf("admin hard delete of final record denied: %+v", d)
	}
	if !CheckRestore(actor(creator), recordIn(t, StatusRequested)).Allowed {
		t.Fatalf("creator restore denied")
	}
	if CheckRestore(actor(stranger, RoleViewer), recordIn(t, StatusRequested)).Allowed {
		t.Fatalf("viewer restore allowed")
	}
}

func TestDenyReason_Message(t *testing.T) {
	for _, r := range []DenyReason{ReasonFinalized, ReasonInProgress, ReasonNotPending, ReasonNotOwner, ReasonAdminOnly} {
		if r.Message() == "" {
			t.Errorf("reason %q has no message", r)
		}
	}
}
