package errors

import (
	"errors"
	"fmt"
)

// AppError represents an application-specific error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeIncompleteProfile    = "INCOMPLETE_PROFILE"
	ErrCodeInvalidOption        = "INVALID_OPTION"
	ErrCodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	ErrCodeTerminalStage        = "TERMINAL_STAGE"
	ErrCodeDealNotActive        = "DEAL_NOT_ACTIVE"
	ErrCodeStaleState           = "STALE_STATE"
	ErrCodeInvalidScoreInput    = "INVALID_SCORE_INPUT"
)

// Common error constructors

func NotFound(message string, cause error) *AppError {
	return NewAppError(ErrCodeNotFound, message, cause)
}

func InvalidInput(message string, cause error) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, cause)
}

func Unauthorized(message string, cause error) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, cause)
}

func Forbidden(message string, cause error) *AppError {
	return NewAppError(ErrCodeForbidden, message, cause)
}

func Conflict(message string, cause error) *AppError {
	return NewAppError(ErrCodeConflict, message, cause)
}

func InternalError(message string, cause error) *AppError {
	return NewAppError(ErrCodeInternalError, message, cause)
}

func DatabaseError(message string, cause error) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, cause)
}

// Domain error constructors

// IncompleteProfile signals finalize was called before all required-by-role
// fields were populated.
func IncompleteProfile(message string) *AppError {
	return NewAppError(ErrCodeIncompleteProfile, message, nil)
}

// InvalidOption signals a select answer outside the question's option list.
func InvalidOption(message string) *AppError {
	return NewAppError(ErrCodeInvalidOption, message, nil)
}

// RequiredFieldMissing signals an empty answer for a required question.
func RequiredFieldMissing(message string) *AppError {
	return NewAppError(ErrCodeRequiredFieldMissing, message, nil)
}

// TerminalStage signals an advance attempt past the final pipeline stage.
func TerminalStage(message string) *AppError {
	return NewAppError(ErrCodeTerminalStage, message, nil)
}

// DealNotActive signals a mutation attempt on a non-active deal.
func DealNotActive(message string) *AppError {
	return NewAppError(ErrCodeDealNotActive, message, nil)
}

// StaleState signals a concurrent writer won; the caller must re-read.
func StaleState(message string) *AppError {
	return NewAppError(ErrCodeStaleState, message, nil)
}

// InvalidScoreInput signals a malformed profile handed to the scorer.
func InvalidScoreInput(message string) *AppError {
	return NewAppError(ErrCodeInvalidScoreInput, message, nil)
}

// CodeOf extracts the AppError code from an error chain, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Is reports whether err carries the given application error code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
