package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a Redis key does not exist.
	RedisNotFoundMessage = "redis key not found"
	// DatabaseErrorMessage describes usage ledger failures.
	DatabaseErrorMessage = "database operation failed"
	// DatabaseBusyMessage is used when SQLite reports lock contention.
	DatabaseBusyMessage = "database is busy"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// BadRequest marks err as caused by invalid client input.
func BadRequest(err error) *AppError {
	return New(err, http.StatusBadRequest, err.Error())
}

// Unauthorized marks err as an authentication failure.
func Unauthorized(err error) *AppError {
	return New(err, http.StatusUnauthorized, "unauthorized")
}

// NotFound marks err as a missing resource.
func NotFound(err error, message string) *AppError {
	return New(err, http.StatusNotFound, message)
}

// StatusOf returns the HTTP status carried by the first AppError in err's chain,
// or 500 when there is none.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns a message that is safe to show to API clients.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
