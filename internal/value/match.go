package value

import (
	"encoding/json"
	"time"

	"github.com/google/go-cmp/cmp"
)

// dateLayouts are tried in order when a string is checked against Date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

// Matches reports whether actual satisfies expected.
// expected may be any Go value; it is classified with Of.
//
// Matches never panics on shape mismatches: a JSON expectation against a
// non-string or invalid JSON actual value is simply false.
func Matches(actual any, expected any) bool {
	switch exp := Of(expected).(type) {
	case JSON:
		return matchJSON(actual, exp.Value)
	case Pattern:
		if exp.Re == nil {
			return false
		}
		return exp.Re.MatchString(Coerce(actual))
	case DateSentinel:
		return isDate(actual)
	case Predicate:
		if exp == nil {
			return false
		}
		return exp(actual)
	case Literal:
		return Coerce(actual) == Coerce(exp.Value)
	default:
		return false
	}
}

// matchJSON decodes actual as JSON text and compares it structurally with
// expected after normalising expected through a JSON round trip, so that
// Go ints compare equal to decoded float64s.
func matchJSON(actual any, expected any) bool {
	var text []byte
	switch v := actual.(type) {
	case string:
		text = []byte(v)
	case []byte:
		text = v
	default:
		return false
	}

	var got any
	if err := json.Unmarshal(text, &got); err != nil {
		return false
	}

	want, err := normalizeJSON(expected)
	if err != nil {
		return false
	}

	return cmp.Equal(got, want)
}

// normalizeJSON converts v into the generic form encoding/json decodes into.
func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// isDate reports whether v already is a valid date representation: a
// non-zero time.Time, or a string that survives a parse/format round trip.
func isDate(v any) bool {
	switch val := v.(type) {
	case time.Time:
		return !val.IsZero()
	case *time.Time:
		return val != nil && !val.IsZero()
	case string:
		for _, layout := range dateLayouts {
			t, err := time.Parse(layout, val)
			if err != nil {
				continue
			}
			if t.Format(layout) == val {
				return true
			}
		}
		return false
	default:
		return false
	}
}
