package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input on a single field.
// Several of them may be combined with errors.Join.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidStatusError reports a status token outside the known vocabulary.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q", e.Value)
}

// IllegalTransitionError reports a status change the lifecycle graph does
// not allow.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

// InvalidStateError reports an operation that is not permitted in the
// record's current lifecycle state.
type InvalidStateError struct {
	Op     string
	Status Status
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s record in status %s: %s", e.Op, e.Status, e.Reason)
}

// NotFoundError reports a repository lookup by id that found nothing.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %d not found", e.ID)
}

// ReconstructionError reports a persisted row that violates the aggregate
// invariants. It must surface to the caller; it is never swallowed.
type ReconstructionError struct {
	ID    int64
	Cause error
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("record %d cannot be reconstructed: %v", e.ID, e.Cause)
}

func (e *ReconstructionError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationErrors flattens err (possibly joined) into its field errors.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
			return
		}
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	walk(err)
	return out
}
