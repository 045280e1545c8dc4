package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks connection failures and timeouts.
	ErrTransport = errors.New("transport error")
	// ErrHTTP marks non-2xx responses.
	ErrHTTP = errors.New("http error")
	// ErrNilEndpoint is returned by Execute for a nil endpoint.
	ErrNilEndpoint = errors.New("nil endpoint")
	// ErrResponseTooLarge marks bodies over the configured size limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// TransportError is a network-level failure after Attempts attempts.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return ErrHTTP }

// ResponseTooLargeError is a response whose body exceeded Limit bytes. It is
// never retried.
type ResponseTooLargeError struct {
	StatusCode int
	Limit      int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response exceeds %d bytes (HTTP %d)", e.Limit, e.StatusCode)
}

func (e *ResponseTooLargeError) Unwrap() error { return ErrResponseTooLarge }
