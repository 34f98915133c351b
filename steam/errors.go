package steam

import "fmt"

// StatusError is returned for non-2xx HTTP responses.
// Wrapping the status code allows callers to distinguish retriable (5xx)
// from non-retriable (4xx) failures.
type StatusError struct {
	// Op is the API operation that failed (e.g. "owned_games").
	Op string
	// Code is the HTTP status code.
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// APIError is returned when the service responds 2xx but reports failure
// in the payload (e.g. an unresolved vanity name, an unknown account).
type APIError struct {
	// Op is the API operation that failed.
	Op string
	// Message is the upstream-supplied message, empty when the service
	// gave none.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: request rejected", e.Op)
}
