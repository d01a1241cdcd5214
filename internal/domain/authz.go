package domain

// DenyReason explains why an authorization check failed, so callers can
// tell the actor something actionable.
type DenyReason string

const (
	ReasonNone       DenyReason = ""
	ReasonFinalized  DenyReason = "record_finalized"
	ReasonInProgress DenyReason = "record_in_progress"
	ReasonNotPending DenyReason = "record_not_pending"
	ReasonNotOwner   DenyReason = "not_your_record"
	ReasonAdminOnly  DenyReason = "admin_only"
)

// Message returns a human readable sentence for the reason.
func (r DenyReason) Message() string {
	switch r {
	case ReasonFinalized:
		return "record is finalized"
	case ReasonInProgress:
		return "record is in progress"
	case ReasonNotPending:
		return "record is no longer pending; only the assignee or an operator can change it"
	case ReasonNotOwner:
		return "not your record"
	case ReasonAdminOnly:
		return "only administrators can perform this operation"
	default:
		return ""
	}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Reason: r} }

// CanView reports whether actor may read rec.
func CanView(actor Actor, rec *Record) bool {
	return rec.IsCreatedBy(actor.ID) || rec.IsAssignedTo(actor.ID) || actor.SeesEverything()
}

// CheckEdit decides whether actor may modify rec. Administrators may edit
// even terminal records.
func CheckEdit(actor Actor, rec *Record) Decision {
	if actor.IsAdmin() {
		return allow()
	}
	st := rec.Status()
	if st.IsFinal() {
		return deny(ReasonFinalized)
	}
	if rec.IsAssignedTo(actor.ID) || actor.Roles.HasAny(RoleOperator, RoleCoordinator) {
		return allow()
	}
	if rec.IsCreatedBy(actor.ID) {
		if st.IsPending() {
			return allow()
		}
		return deny(ReasonNotPending)
	}
	return deny(ReasonNotOwner)
}

// CanEdit is CheckEdit reduced to a boolean.
func CanEdit(actor Actor, rec *Record) bool { return CheckEdit(actor, rec).Allowed }

// CheckDelete decides whether actor may soft-delete rec. It is stricter
// than CheckEdit: in-progress records are protected even from admins.
func CheckDelete(actor Actor, rec *Record) Decision {
	st := rec.Status()
	if actor.IsAdmin() {
		if st.IsInProgress() {
			return deny(ReasonInProgress)
		}
		return allow()
	}
	if rec.IsCreatedBy(actor.ID) {
		switch {
		case st.IsFinal():
			return deny(ReasonFinalized)
		case st.IsInProgress():
			return deny(ReasonInProgress)
		}
		return allow()
	}
	if rec.IsAssignedTo(actor.ID) {
		if st.IsFinal() {
			return deny(ReasonFinalized)
		}
		return allow()
	}
	return deny(ReasonNotOwner)
}

// CanDelete is CheckDelete reduced to a boolean.
func CanDelete(actor Actor, rec *Record) bool { return CheckDelete(actor, rec).Allowed }

// CheckHardDelete decides whether actor may permanently remove rec.
func CheckHardDelete(actor Actor, rec *Record) Decision {
	if !actor.IsAdmin() {
		return deny(ReasonAdminOnly)
	}
	if rec.Status().IsInProgress() {
		return deny(ReasonInProgress)
	}
	return allow()
}

// CheckRestore decides whether actor may undo a soft delete. The same
// actors that could delete the record may bring it back.
func CheckRestore(actor Actor, rec *Record) Decision {
	if actor.IsAdmin() || rec.IsCreatedBy(actor.ID) || rec.IsAssignedTo(actor.ID) {
		return allow()
	}
	return deny(ReasonNotOwner)
}
