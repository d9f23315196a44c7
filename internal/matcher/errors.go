package matcher

import (
	"errors"
	"fmt"
)

// Misuse causes. Check with errors.Is.
var (
	ErrNotRecorder    = errors.New("value must be a query recorder")
	ErrBadExpectation = errors.New("unsupported expectation")
)

// MisuseError reports that a matcher was called incorrectly. It is not an
// assertion failure: no comparison was attempted.
type MisuseError struct {
	// Matcher is the entry point that rejected the call.
	Matcher string

	// Subject is the offending value: the recorder for ErrNotRecorder, the
	// expectation for ErrBadExpectation.
	Subject any

	Err error
}

// Error implements the error interface.
func (e *MisuseError) Error() string {
	return fmt.Sprintf("%s: %v (received %T)", e.Matcher, e.Err, e.Subject)
}

// Unwrap returns the misuse cause.
func (e *MisuseError) Unwrap() error {
	return e.Err
}
