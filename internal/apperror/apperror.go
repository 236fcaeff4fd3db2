// Package apperror defines the error taxonomy shared by the client core and the
// development backend.
//
// Every error is a sentinel (checked with errors.Is) wrapped in an *AppError that
// carries a human-readable message and, for validation failures, the offending field.
//
//	if errors.Is(err, apperror.ErrAuthentication) { ... }
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("Validation Error")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNetwork        = errors.New("network error")
	ErrAuthentication = errors.New("authentication failed")
	ErrStorage        = errors.New("storage error")
	ErrConfiguration  = errors.New("configuration error")
	ErrInvalidState   = errors.New("invalid state transition")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status that produced the error (client side)
	Cause   error  // Optional: underlying error (transport, driver, ...)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned by the backend when credentials are missing or wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Network reports a failed request or a non-2xx response. status is 0 when the
// request never produced a response.
func Network(status int, message string, cause error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// Authentication reports rejected credentials.
func Authentication(message string) *AppError {
	return &AppError{
		Err:     ErrAuthentication,
		Message: message,
	}
}

// Storage reports a durable read/write failure.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage %s failed", op),
		Cause:   cause,
	}
}

// Configuration reports a programming error such as using a component outside
// its lifecycle.
func Configuration(message string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: message,
	}
}

// InvalidState reports a transition the state machine does not allow.
func InvalidState(from, op string) *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("%s is not allowed while %s", op, from),
	}
}

// UserMessage returns the generic text shown to the user for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.Message != "" {
			return appErr.Message
		}
		return "Please check the highlighted fields."
	case errors.Is(err, ErrAuthentication):
		return "Sign-in failed, check your credentials."
	case errors.Is(err, ErrNetwork):
		return "Something went wrong, please try again."
	case errors.Is(err, ErrStorage):
		return "Could not access device storage."
	default:
		return "Unexpected error, please try again."
	}
}
