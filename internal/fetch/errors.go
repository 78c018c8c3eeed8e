package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrServerStatus marks a 5xx response. It is transient and retried.
	ErrServerStatus = errors.New("server error status")

	// ErrUnexpectedStatus is returned by FetchJSON for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrBodyTooLarge is returned when a body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// FetchError reports a fetch that failed on every attempt.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// Attempts is the number of requests made.
	Attempts int

	// Err is the error of the last attempt.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
