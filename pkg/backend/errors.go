package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyBaseURL indicates the client was configured without a base URL
	ErrEmptyBaseURL = errors.New("backend.empty_base_url")

	// ErrInvalidBaseURL indicates the base URL cannot be parsed or is not absolute
	ErrInvalidBaseURL = errors.New("backend.invalid_base_url")

	// ErrRequestFailed wraps transport failures: DNS, connection, timeouts, broken responses
	ErrRequestFailed = errors.New("backend.request_failed")

	// ErrUnauthorized matches a StatusError carrying 401 or 403
	ErrUnauthorized = errors.New("backend.unauthorized")
)

// StatusError reports a response with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s",
		e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// StatusCodeOf extracts the HTTP status from err, or 0 when err carries none.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
