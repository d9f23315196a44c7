// Package value decides whether a captured bound value satisfies an
// expectation.
//
// An expectation is one of a closed set of shapes:
//   - Literal: compared by string form (so 1 and "1" are equal)
//   - JSON: a map or slice; the actual value must be JSON text with the same structure
//   - Pattern: a regular expression matched against the string form
//   - DateSentinel: the actual value must already be a valid date representation
//   - Predicate: a caller-supplied func(any) bool
//
// Arbitrary Go values are classified with Of, so callers can write plain
// literals, maps, *regexp.Regexp, value.Date or func(any) bool directly in an
// expectation.
//
// This package imports nothing internal.
package value
