// Package services defines the use cases of the unarchiving tracker. This
// file centralizes service-level error values so that they are returned
// consistently by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer. Domain errors (validation, illegal transition,
// invalid state, reconstruction) pass through unchanged.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/unarchive-tracker/internal/domain"
)

var (
	// ErrRecordNotFound indicates that the record does not exist or is not
	// visible to the actor.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateReference is returned when another record already uses
	// the reference code.
	ErrDuplicateReference = errors.New("reference code already in use")

	// ErrForbidden is the root of every authorization denial. Use
	// errors.Is(err, ErrForbidden) to detect denials and errors.As with
	// *DeniedError to read the reason.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when a use case runs without an actor.
	ErrUnauthenticated = errors.New("actor is required")
)

// DeniedError reports an authorization denial with its reason.
type DeniedError struct {
	Action string
	Reason domain.DenyReason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Reason.Message())
}

// Is makes DeniedError match ErrForbidden.
func (e *DeniedError) Is(target error) bool { return target == ErrForbidden }

func denied(action string, d domain.Decision) error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Action: action, Reason: d.Reason}
}
