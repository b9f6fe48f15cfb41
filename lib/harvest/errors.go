package harvest

import (
	"errors"
	"fmt"
)

var (
	ErrWrongCategory = errors.New("results page is not in the expected category")
	ErrNavigation    = errors.New("page navigation failed")
)

// PreconditionError is returned when the results view is not showing the
// expected kind of record. It is never retried.
type PreconditionError struct {
	Marker string
	Mode   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: selected mode %q does not contain %q", ErrWrongCategory, e.Mode, e.Marker)
}

func (e *PreconditionError) Unwrap() error {
	return ErrWrongCategory
}

// NavigationError wraps a failure of the Page collaborator. Op names the
// step that failed, ex. "refresh" or "follow".
type NavigationError struct {
	Op  string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNavigation, e.Op, e.Err)
}

func (e *NavigationError) Unwrap() []error {
	return []error{ErrNavigation, e.Err}
}
