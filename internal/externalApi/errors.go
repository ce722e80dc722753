package externalApi

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("error not found")

	// ErrAccessBlocked signals a 401/403 from the deals listing: upstream
	// deployment protection is in the way, not the operator's input.
	ErrAccessBlocked = errors.New("access to the API is blocked upstream, check deployment protection settings")
)

// APIError is a non-2xx response normalized to the server-supplied message,
// or a generic fallback when the body carried none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(statusCode int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("HTTP error, status %d", statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: message}
}
