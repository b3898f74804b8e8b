package protocols

import (
	"errors"
	"fmt"
)

// ErrClientIndexOutOfRange is returned by access-link generation when the
// requested client index does not exist. The index is never clamped.
var ErrClientIndexOutOfRange = errors.New("client index out of range")

// ConfigurationError reports an incompatible protocol, transport, or security
// combination detected at construction time. It is not retryable.
type ConfigurationError struct {
	Message string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Message
}

// TypeMismatchError reports that a payload was routed to the wrong protocol
// variant. It indicates a caller bug, never a transient condition.
type TypeMismatchError struct {
	Expected Protocol
	Actual   string
}

// Error returns the error message.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("protocol mismatch: payload is for %q, expected %q", e.Actual, e.Expected)
}

// DecodeError reports a malformed or missing field in a wire payload.
type DecodeError struct {
	Field string
	Cause error
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot decode inbound field %q: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("cannot decode inbound: missing or malformed field %q", e.Field)
}

// Unwrap returns the underlying cause, if any.
func (e *DecodeError) Unwrap() error { return e.Cause }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

func decodeErrorf(field string, cause error) error {
	return &DecodeError{Field: field, Cause: cause}
}
