// Package domain holds the unarchiving record aggregate and the rules that
// govern it: the status lifecycle, the role set of an actor, the
// authorization predicates and the typed errors raised by each operation.
//
// Nothing in this package performs I/O. Time is read through a Clock so
// callers can freeze it.
package domain

import "strings"

// Status is one of the seven lifecycle stages of a record.
type Status string

const (
	// StatusRequested is the initial stage of every new record.
	StatusRequested Status = "SOLICITADO"
	// StatusReleased means the record was taken out of the archive.
	StatusReleased Status = "DESARQUIVADO"
	// StatusPickedUp means the requesting department collected the record.
	StatusPickedUp Status = "RETIRADO_PELO_SETOR"
	// StatusNotCollected means the department never picked the record up.
	StatusNotCollected Status = "NAO_COLETADO"
	// StatusRearchiveRequested means the record is waiting to go back.
	StatusRearchiveRequested Status = "REARQUIVAMENTO_SOLICITADO"
	// StatusFinalized is terminal.
	StatusFinalized Status = "FINALIZADO"
	// StatusNotLocated is terminal.
	StatusNotLocated Status = "NAO_LOCALIZADO"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusRequested,
	StatusReleased,
	StatusPickedUp,
	StatusNotCollected,
	StatusRearchiveRequested,
	StatusFinalized,
	StatusNotLocated,
}

// transitions is the adjacency set of the lifecycle graph. Terminal states
// map to an empty set.
var transitions = map[Status]map[Status]bool{
	StatusRequested:          {StatusReleased: true, StatusNotLocated: true},
	StatusReleased:           {StatusPickedUp: true, StatusNotCollected: true, StatusRearchiveRequested: true},
	StatusPickedUp:           {StatusFinalized: true},
	StatusNotCollected:       {StatusRearchiveRequested: true},
	StatusRearchiveRequested: {StatusFinalized: true},
	StatusFinalized:          {},
	StatusNotLocated:         {},
}

// ParseStatus converts a wire token into a Status. Matching is exact; an
// unknown token yields *InvalidStatusError.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", &InvalidStatusError{Value: s}
	}
	return st, nil
}

// NormalizeStatus is the lenient variant used on persisted and user-typed
// values: it trims whitespace, upper-cases and maps spaces and hyphens to
// underscores before matching. Anything still unknown is rejected, never
// defaulted.
func NormalizeStatus(s string) (Status, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	st := Status(n)
	if !st.IsValid() {
		return "", &InvalidStatusError{Value: s}
	}
	return st, nil
}

// String returns the wire token.
func (s Status) String() string { return string(s) }

// IsValid reports whether s is one of the seven known statuses.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s Status) CanTransitionTo(target Status) bool {
	return transitions[s][target]
}

// Next returns the statuses directly reachable from s, in lifecycle order.
func (s Status) Next() []Status {
	out := make([]Status, 0, len(transitions[s]))
	for _, st := range AllStatuses {
		if transitions[s][st] {
			out = append(out, st)
		}
	}
	return out
}

// IsFinal reports whether s is terminal.
func (s Status) IsFinal() bool {
	return s == StatusFinalized || s == StatusNotLocated
}

// IsPending reports whether work on the record has not started yet.
func (s Status) IsPending() bool {
	return s == StatusRequested
}

// IsInProgress reports whether the record is out of the archive and being
// worked on. In-progress records are protected from deletion.
func (s Status) IsInProgress() bool {
	switch s {
	case StatusReleased, StatusPickedUp, StatusRearchiveRequested:
		return true
	default:
		return false
	}
}

// CanBeCompleted reports whether a direct transition to StatusFinalized
// exists from s.
func (s Status) CanBeCompleted() bool {
	return s.CanTransitionTo(StatusFinalized)
}

// TerminalStatuses returns the terminal statuses.
func TerminalStatuses() []Status {
	return []Status{StatusFinalized, StatusNotLocated}
}

// InProgressStatuses returns the statuses protected from deletion.
func InProgressStatuses() []Status {
	return []Status{StatusReleased, StatusPickedUp, StatusRearchiveRequested}
}

// RecordType classifies the requested record.
type RecordType string

const (
	TypePhysical   RecordType = "PHYSICAL"
	TypeDigital    RecordType = "DIGITAL"
	TypeNotLocated RecordType = "NOT_LOCATED"
)

// ParseRecordType accepts the canonical tokens case-insensitively.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypePhysical, TypeDigital, TypeNotLocated:
		return t, nil
	}
	return "", &ValidationError{Field: "record_type", Message: "must be one of PHYSICAL, DIGITAL, NOT_LOCATED"}
}
