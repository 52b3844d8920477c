package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized matches any response that rejected the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

type authError struct {
	status  int
	message string
}

func (e *authError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("unauthorized (%d): %s", e.status, e.message)
	}
	return fmt.Sprintf("unauthorized (%d)", e.status)
}

func (e *authError) Is(target error) bool { return target == ErrUnauthorized }

// HTTPError is any other non-2xx response.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// ValidationError is a 2xx response whose body flagged success=false.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == 404
}
