package shared

import (
	"errors"
	"net/http"
)

// AppError is the error shape every service returns across the HTTP boundary.
// Kind drives the status code; the wrapped error keeps the original cause.
type AppError struct {
	StatusCode int
	Kind       string
	Message    string
	Data       interface{}
	Err        error
}

const (
	ErrNotFound         = "NOT_FOUND"
	ErrConflict         = "CONFLICT"
	ErrBadRequest       = "BAD_REQUEST"
	ErrUnauthenticated  = "UNAUTHENTICATED"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrUpstreamFailure  = "UPSTREAM_FAILURE"
	ErrExhaustedRetries = "EXHAUSTED_RETRIES"
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Kind + ": " + e.Err.Error()
	}
	return e.Kind + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, kind string, err error, message string) *AppError {
	return &AppError{
		StatusCode: status,
		Kind:       kind,
		Message:    message,
		Err:        err,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, ErrNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, ErrConflict, err, message)
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, ErrBadRequest, err, message)
}

func NewUnauthenticatedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, ErrUnauthenticated, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusForbidden, ErrUnauthorized, err, message)
}

func NewUpstreamError(err error, message string) *AppError {
	return newAppError(http.StatusBadGateway, ErrUpstreamFailure, err, message)
}

func NewExhaustedRetriesError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, ErrExhaustedRetries, err, message)
}

// GetAppError unwraps err down to an *AppError if one is in the chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind string) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Kind == kind
}
