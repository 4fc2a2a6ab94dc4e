package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"-"`
	cause   error
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an APIError with the same code, so a sentinel
// still matches after details have been attached to a copy of it.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal     = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict     = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
)

// Account and authentication
var (
	ErrUserExists         = NewAPIError("USER_EXISTS", "User already exists", http.StatusBadRequest)
	ErrInvalidCredentials = NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
)

// Profile lifecycle
var (
	ErrProfileExists   = NewAPIError("PROFILE_EXISTS", "Profile already exists", http.StatusBadRequest)
	ErrProfileNotFound = NewAPIError("PROFILE_NOT_FOUND", "Profile not found", http.StatusNotFound)
	ErrTandemIDTaken   = NewAPIError("TANDEM_ID_TAKEN", "Tandem ID is already in use", http.StatusBadRequest)
	ErrMemberNotFound  = NewAPIError("MEMBER_NOT_FOUND", "Member not found", http.StatusNotFound)
	ErrNoFile          = NewAPIError("NO_FILE", "No file uploaded", http.StatusBadRequest)
	ErrUnsupportedFile = NewAPIError("UNSUPPORTED_FILE", "Only jpeg, png, gif and webp images are allowed", http.StatusBadRequest)
	ErrFileTooLarge    = NewAPIError("FILE_TOO_LARGE", "Uploaded file is too large", http.StatusBadRequest)
)

// Relationships
var (
	ErrTargetNotFound    = NewAPIError("TARGET_NOT_FOUND", "User not found", http.StatusNotFound)
	ErrAlreadyInRelation = NewAPIError("ALREADY_IN_RELATION", "Relationship already exists", http.StatusBadRequest)
	ErrNotInRelation     = NewAPIError("NOT_IN_RELATION", "Relationship does not exist", http.StatusBadRequest)
	ErrSelfRelation      = NewAPIError("SELF_RELATION", "Cannot target your own account", http.StatusBadRequest)
)

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	wrapped := NewAPIError(code, message, status, err.Error())
	wrapped.cause = err
	return wrapped
}

// WithMessage returns a copy of the sentinel carrying a request-specific message.
func WithMessage(sentinel *APIError, message string) *APIError {
	return &APIError{
		Code:    sentinel.Code,
		Message: message,
		Status:  sentinel.Status,
	}
}

// Internal wraps an unexpected failure as a 500 that keeps the cause for logging.
func Internal(err error) *APIError {
	return Wrap(err, ErrInternal.Code, ErrInternal.Message, ErrInternal.Status)
}
