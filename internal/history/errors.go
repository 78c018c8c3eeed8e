package history

import (
	"errors"
	"fmt"

	"github.com/nao1215/skinhistory/internal/patch"
)

// ErrMissingPredecessor is matched by MissingPredecessorError via errors.Is.
var ErrMissingPredecessor = errors.New("no predecessor release")

// MissingPredecessorError reports a heading whose release cannot be
// attributed: it is not in the global list, it is the oldest entry, or its
// predecessor is below the minimum supported version.
type MissingPredecessorError struct {
	// Release is the release named by the heading.
	Release patch.Version

	// Reason tells which of the cases above applied.
	Reason string
}

// Error implements the error interface.
func (e *MissingPredecessorError) Error() string {
	return fmt.Sprintf("%s for %s: %s", ErrMissingPredecessor, e.Release, e.Reason)
}

// Is reports whether target is ErrMissingPredecessor.
func (e *MissingPredecessorError) Is(target error) bool {
	return target == ErrMissingPredecessor
}
