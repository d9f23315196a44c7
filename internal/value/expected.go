package value

import (
	"reflect"
	"regexp"
)

// Expected is a sealed interface over the supported expectation shapes.
// Only Literal, JSON, Pattern, DateSentinel and Predicate implement it.
type Expected interface {
	expected() // Sealed - only these types implement it
}

// Literal is compared by string coercion.
type Literal struct {
	Value any
}

func (Literal) expected() {}

// JSON holds a map or slice that the actual value must encode.
type JSON struct {
	Value any
}

func (JSON) expected() {}

// Pattern matches the string form of the actual value.
type Pattern struct {
	Re *regexp.Regexp
}

func (Pattern) expected() {}

// DateSentinel accepts any value that is already a valid date.
type DateSentinel struct{}

func (DateSentinel) expected() {}

// Predicate delegates the decision to the caller.
type Predicate func(actual any) bool

func (Predicate) expected() {}

// Date is the sentinel callers place in an expectation to require a date.
var Date = DateSentinel{}

// MustPattern compiles expr and wraps it as a Pattern.
// Panics if expr is not a valid regular expression.
func MustPattern(expr string) Pattern {
	return Pattern{Re: regexp.MustCompile(expr)}
}

// Of classifies an arbitrary expectation value.
//
// Dispatch order matters and mirrors Matches: containers first, then
// regular expressions, the date sentinel, predicates, and finally literals.
func Of(v any) Expected {
	switch val := v.(type) {
	case Expected:
		return val
	case *regexp.Regexp:
		if val == nil {
			return Literal{Value: nil}
		}
		return Pattern{Re: val}
	case func(any) bool:
		return Predicate(val)
	case []byte:
		return Literal{Value: val}
	case nil:
		return Literal{Value: nil}
	}

	if isContainer(v) {
		return JSON{Value: v}
	}
	return Literal{Value: v}
}

// isContainer reports whether v is a string-keyed map, slice or array.
func isContainer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}
