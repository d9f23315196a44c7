// Package compare decides whether a query descriptor satisfies an
// expectation.
//
// Comparison is closed-world: every key present on either side must be
// present on both, and every shared key must satisfy value.Matches. An
// untested column is a mismatch, not a wildcard.
package compare

import (
	"sort"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/querymatch/internal/descriptor"
	"github.com/roach88/querymatch/internal/value"
)

// Expectation maps caller-facing field names (conventionally camelCase) to
// expected values. Values may be any shape value.Of understands.
type Expectation map[string]any

// Sequence is a positional list of expectations. A nil entry is a hole and
// is never checked.
type Sequence []Expectation

// Canonical returns e with keys converted to the snake_case column
// convention. When two keys collide the lexically last original key wins.
func (e Expectation) Canonical() map[string]any {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(e))
	for _, k := range keys {
		out[CanonicalKey(k)] = e[k]
	}
	return out
}

// CanonicalKey converts a caller-facing key into the column convention.
func CanonicalKey(k string) string {
	return norm.NFC.String(strcase.ToSnake(k))
}

// Matches reports whether actual satisfies expected.
func Matches(actual descriptor.Descriptor, expected Expectation) bool {
	got := actual.Map()
	want := expected.Canonical()

	for _, k := range Keys(got, want) {
		a, okA := got[k]
		e, okE := want[k]
		if !okA || !okE {
			return false
		}
		if !value.Matches(a, e) {
			return false
		}
	}
	return true
}

// Keys returns the sorted union of the keys of actual and expected.
func Keys(actual, expected map[string]any) []string {
	seen := make(map[string]struct{}, len(actual)+len(expected))
	for k := range actual {
		seen[k] = struct{}{}
	}
	for k := range expected {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
