package xuiclient

import (
	"errors"
	"fmt"
)

// ErrLoginRequired is returned when the panel redirects a request back to
// the login page, which is how every dialect signals an expired session.
var ErrLoginRequired = errors.New("xuiclient: login required")

// APIError is a panel response with success=false; Message carries the
// panel's msg field verbatim.
type APIError struct {
	Operation string
	Message   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("xuiclient: %s failed", e.Operation)
	}
	return fmt.Sprintf("xuiclient: %s failed: %s", e.Operation, e.Message)
}

// UnsupportedOperationError is returned when an operation is called on a
// dialect whose panel never exposed the endpoint.
type UnsupportedOperationError struct {
	Dialect   Dialect
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("xuiclient: %s panels do not support %s", e.Dialect, e.Operation)
}

// StatusError is a non-2xx HTTP response that carried no panel envelope.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("xuiclient: %s failed with status code %d: %s", e.Operation, e.StatusCode, e.Body)
}
