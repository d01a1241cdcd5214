// Package handlers implements the HTTP endpoints of the record API.
//
// Every failure is written as an ErrorResponse with a stable code from
// errors.go. failErr maps service and domain errors onto status and code in
// one place so individual handlers stay thin.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/http/middleware"
	"github.com/tbourn/unarchive-tracker/internal/services"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field" example:"reference_code"`
	Message string `json:"message" example:"is required"`
}

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"record not found"`
	// Per-field problems for validation_failed
	Details []FieldError `json:"details,omitempty"`
}

func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = middleware.RequestIDFrom(c)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, for router-level handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates a use-case error into a response.
func failErr(c *gin.Context, err error) {
	var (
		denied    *services.DeniedError
		illegal   *domain.IllegalTransitionError
		badState  *domain.InvalidStateError
		badStatus *domain.InvalidStatusError
		corrupted *domain.ReconstructionError
		fieldErrs = domain.ValidationErrors(err)
	)
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.As(err, &denied):
		code := string(denied.Reason)
		if code == "" {
			code = ErrCodeForbidden
		}
		fail(c, http.StatusForbidden, code, denied.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrRecordNotFound), domain.IsNotFound(err):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
	case errors.Is(err, services.ErrDuplicateReference):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.As(err, &illegal):
		fail(c, http.StatusConflict, ErrCodeIllegalTransition, illegal.Error())
	case errors.As(err, &badState):
		fail(c, http.StatusConflict, ErrCodeInvalidState, badState.Error())
	case errors.As(err, &corrupted):
		fail(c, http.StatusInternalServerError, ErrCodeCorruptedRecord, corrupted.Error())
	case len(fieldErrs) > 0:
		details := make([]FieldError, len(fieldErrs))
		for i, fe := range fieldErrs {
			details[i] = FieldError{Field: fe.Field, Message: fe.Message}
		}
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: "invalid record",
			Details: details,
		})
	case errors.As(err, &badStatus):
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: badStatus.Error(),
			Details: []FieldError{{Field: "status", Message: badStatus.Error()}},
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "request cancelled")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// invalidField answers 400 validation_failed for a single query or body field.
func invalidField(c *gin.Context, field, msg string) {
	failWith(c, http.StatusBadRequest, ErrorResponse{
		Code:    ErrCodeValidation,
		Message: field + " " + msg,
		Details: []FieldError{{Field: field, Message: msg}},
	})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
