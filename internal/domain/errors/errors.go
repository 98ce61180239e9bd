package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidState  = errors.New("invalid state for operation")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrNoWebhookEndpoint means the merchant has no webhook URL configured.
	// Terminal for a delivery: retrying cannot fix misconfiguration.
	ErrNoWebhookEndpoint = errors.New("no webhook endpoint configured")

	// ErrDeliveryFailed is a transient webhook delivery failure
	// (timeout, connection error, non-2xx). Retried per the backoff schedule.
	ErrDeliveryFailed = errors.New("webhook delivery failed")
)

// Stable error codes surfaced in API responses
const (
	CodeBadRequest   = "BAD_REQUEST_ERROR"
	CodeNotFound     = "NOT_FOUND_ERROR"
	CodeUnauthorized = "UNAUTHORIZED_ERROR"
	CodeConflict     = "CONFLICT_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status and stable code
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"description"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation rejects a request with missing or inconsistent fields
func Validation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrValidation)
}

// InvalidState rejects an operation not valid for the entity's current state
func InvalidState(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrInvalidState)
}

// NotFound reports an unknown or cross-merchant id
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

// Unauthorized reports missing or invalid credentials
func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

// Conflict reports a concurrent duplicate request
func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

// InternalError wraps an unexpected failure
func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}
