package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched through errors.Is on a *StatusError.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrPaymentRequired = errors.New("payment required")
	ErrNotFound        = errors.New("not found")
	// ErrNotLoggedIn means no usable session exists and the user has to log
	// in again.
	ErrNotLoggedIn = errors.New("not logged in")
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s failed: %s: %s", e.Method, e.Path, e.Status, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrPaymentRequired:
		return e.StatusCode == http.StatusPaymentRequired
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Server reports a 5xx response.
func (e *StatusError) Server() bool {
	return e.StatusCode >= 500
}

// TransportError wraps a failure to reach the backend at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
