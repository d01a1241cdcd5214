package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, so
// they never change once published. Authorization denials use the deny
// reason itself as the code (record_finalized, not_your_record, ...).
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	ErrCodeValidation        = "validation_failed"
	ErrCodeIllegalTransition = "illegal_transition"
	ErrCodeInvalidState      = "invalid_state"
	ErrCodeCorruptedRecord   = "corrupted_record"
)
