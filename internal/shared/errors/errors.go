package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error kinds
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAuthorization = errors.New("field write not permitted")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation error")
	ErrStorage       = errors.New("storage error")
	ErrInternal      = errors.New("internal error")
)

// AppError represents an application error with context.
// Fields maps a field path (e.g. "tax_info.outstanding_tax") to one or more
// messages; it is populated for validation and authorization errors and
// returned whole, never field-at-a-time.
type AppError struct {
	Err        error               `json:"-"`
	Message    string              `json:"message"`
	Code       string              `json:"code"`
	HTTPStatus int                 `json:"-"`
	Fields     map[string][]string `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not found error
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s %s not found", resource, id),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates an unauthenticated error
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Authorization creates a field-level authorization error listing every
// denied field path.
func Authorization(fields map[string][]string) *AppError {
	return &AppError{
		Err:        ErrAuthorization,
		Message:    "role is not permitted to write one or more fields",
		Code:       "AUTHORIZATION_ERROR",
		HTTPStatus: http.StatusForbidden,
		Fields:     fields,
	}
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		Code:       "BAD_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// Validation creates a validation error keyed by field path. Every offending
// field is reported in one response.
func Validation(fields map[string][]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    "one or more fields failed validation",
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Fields:     fields,
	}
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

// Storage creates a storage error. Storage errors are fatal to the request;
// the unit of work they interrupt is rolled back whole.
func Storage(err error, message string) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrStorage, err),
		Message:    message,
		Code:       "STORAGE_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Internal creates an internal error
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}
