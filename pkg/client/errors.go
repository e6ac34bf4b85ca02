package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a page fetch failed.
type ErrorKind string

const (
	// KindInvalidRequest means the request could not be built (bad page number or URL).
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindTransport represents DNS, connection, timeout and cancellation failures.
	KindTransport ErrorKind = "transport"

	// KindBadStatus represents a response status outside 200-299.
	KindBadStatus ErrorKind = "bad_status"

	// KindDecode represents a response body that does not match the expected shape.
	KindDecode ErrorKind = "decode"
)

// NetworkError is the error returned by FetchPage. Every failure of a fetch
// attempt is reported as exactly one NetworkError.
type NetworkError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a NetworkError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	return netErr.Kind == kind
}

// StatusCode returns the HTTP status carried by a bad_status error, or 0.
func StatusCode(err error) int {
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Kind != KindBadStatus {
		return 0
	}
	return netErr.StatusCode
}
