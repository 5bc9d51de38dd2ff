package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("request timed out")
	ErrInvalidPin     = errors.New("cannot pin a null-valued extraction")
	ErrInternal       = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func InvalidRequestf(format string, args ...any) error {
	return NewAppError("INVALID_REQUEST", fmt.Sprintf(format, args...), ErrInvalidRequest)
}

func NotFoundf(format string, args ...any) error {
	return NewAppError("NOT_FOUND", fmt.Sprintf(format, args...), ErrNotFound)
}

// ClassifyTransport maps a transport-level failure to the error taxonomy.
// Deadline and net timeouts become ErrTimeout, everything else ErrNetwork.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewAppError("TIMEOUT", "request deadline exceeded", ErrTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewAppError("TIMEOUT", "request timed out", ErrTimeout)
	}
	return NewAppError("NETWORK", err.Error(), ErrNetwork)
}

// ClassifyStatus maps a non-2xx HTTP status to the error taxonomy.
func ClassifyStatus(status int, body string) error {
	switch {
	case status == http.StatusNotFound:
		return NewAppError("NOT_FOUND", body, ErrNotFound)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewAppError("INVALID_REQUEST", body, ErrInvalidRequest)
	default:
		return NewAppError("INTERNAL", fmt.Sprintf("unexpected status %d: %s", status, body), ErrInternal)
	}
}

// Transient reports whether an error may clear on the next poll tick.
// Only transport failures qualify; validation and not-found never retry.
func Transient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
