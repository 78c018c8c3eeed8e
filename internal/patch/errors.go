package patch

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel matched by every FormatError via errors.Is.
var ErrFormat = errors.New("malformed release version")

// FormatError is returned by Parse when the input is not "<int>.<int>".
type FormatError struct {
	// Input is the rejected text as given to Parse.
	Input string

	// Reason describes which constraint was violated.
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrFormat, e.Input, e.Reason)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

var (
	errEmptyComponent = errors.New("empty component")
	errNonNumeric     = errors.New("non-numeric component")
)
