package gateway

import "fmt"

// APIError is an application-level failure: the backend answered with a
// non-2xx status. Message is the server-provided text when present.
type APIError struct {
	Status    int
	Message   string
	ErrorCode string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("gateway: status %d (%s): %s", e.Status, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Message)
}

// UnreachableError is a transport-level failure with no offline
// substitution: no HTTP response was received and no fixture matched.
type UnreachableError struct {
	Path  string
	Cause error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("gateway: backend unreachable for %s: %v", e.Path, e.Cause)
}

func (e *UnreachableError) Unwrap() error { return e.Cause }

// DecodeError is returned when a response body cannot be parsed as the
// expected envelope or payload shape.
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gateway: decode response for %s: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }
