// Package diff renders a field-by-field explanation of one descriptor
// compared against one expectation.
package diff

import (
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/descriptor"
	"github.com/roach88/querymatch/internal/value"
)

// Styles decorates rendered lines. Each func wraps an already formatted
// line.
type Styles struct {
	Expected func(string) string
	Received func(string) string
	Neutral  func(string) string
}

// Plain returns styles that leave text untouched.
func Plain() Styles {
	id := func(s string) string { return s }
	return Styles{Expected: id, Received: id, Neutral: id}
}

// NewStyles returns green/red/faint terminal styles. Colour output is forced
// on or off by colored regardless of whether stdout is a terminal, so the
// result is deterministic.
func NewStyles(colored bool) Styles {
	if !colored {
		return Plain()
	}
	return Styles{
		Expected: sprinter(color.FgGreen),
		Received: sprinter(color.FgRed),
		Neutral:  sprinter(color.Faint),
	}
}

func sprinter(attr color.Attribute) func(string) string {
	c := color.New(attr)
	c.EnableColor()
	return func(s string) string { return c.Sprint(s) }
}

// Legend returns the two framing lines that explain the emphasis.
func Legend(st Styles) string {
	st = st.orPlain()
	return st.Expected("- Expected") + "\n" + st.Received("+ Received")
}

// Render explains actual against expected, one line per key in the sorted
// union of both key sets:
//
//	+ key: v     only received
//	- key: v     only expected
//	- key: e     both, mismatching (expected then received)
//	+ key: a
//	  key: v     both, matching
func Render(actual descriptor.Descriptor, expected compare.Expectation, st Styles) string {
	st = st.orPlain()
	got := actual.Map()
	want := expected.Canonical()

	var lines []string
	for _, k := range compare.Keys(got, want) {
		a, okA := got[k]
		e, okE := want[k]
		switch {
		case !okE:
			lines = append(lines, st.Received(line("+", k, a)))
		case !okA:
			lines = append(lines, st.Expected(line("-", k, e)))
		case !value.Matches(a, e):
			lines = append(lines,
				st.Expected(line("-", k, e)),
				st.Received(line("+", k, a)),
			)
		default:
			lines = append(lines, st.Neutral(line(" ", k, a)))
		}
	}

	return Legend(st) + "\n\n" + strings.Join(lines, "\n")
}

func line(sign, key string, v any) string {
	return sign + " " + key + ": " + value.Stringify(v)
}

func (st Styles) orPlain() Styles {
	p := Plain()
	if st.Expected == nil {
		st.Expected = p.Expected
	}
	if st.Received == nil {
		st.Received = p.Received
	}
	if st.Neutral == nil {
		st.Neutral = p.Neutral
	}
	return st
}
