// Package matcher implements the two query assertions over a recorder's call
// history: QueriedWith and LastQueriedWith.
//
// Both are state-free. They normalise the recorded calls, compare the
// resulting descriptors with the expectation and return a Result whose
// message is only built when asked for.
package matcher

import (
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/descriptor"
	"github.com/roach88/querymatch/internal/dialect"
	"github.com/roach88/querymatch/internal/diff"
	"github.com/roach88/querymatch/internal/spy"
)

// Entry point names used in messages and errors.
const (
	NameQueriedWith     = "QueriedWith"
	NameLastQueriedWith = "LastQueriedWith"
)

// handleArg is the call argument holding the query handle.
const handleArg = 1

// Result is the verdict of one assertion.
type Result struct {
	Pass bool

	// Message explains the verdict. When Pass is true it describes what was
	// unexpectedly matched, for negated assertions. Safe to call either way.
	Message func() string
}

// Option configures an assertion.
type Option func(*config)

type config struct {
	adapter dialect.Adapter
	styles  diff.Styles
	logger  *slog.Logger
}

// WithDialect selects the adapter used to read SQL. Defaults to
// dialect.Default.
func WithDialect(a dialect.Adapter) Option {
	return func(c *config) {
		if a != nil {
			c.adapter = a
		}
	}
}

// WithStyles sets the diff emphasis. Defaults to diff.Plain().
func WithStyles(s diff.Styles) Option {
	return func(c *config) {
		c.styles = s
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		adapter: dialect.Default,
		styles:  diff.Plain(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueriedWith asserts on the whole call history.
//
// A single expectation (compare.Expectation or map[string]any) passes when
// any recorded call matches it. A sequence (compare.Sequence,
// []compare.Expectation or []map[string]any) is positional: entry i must
// match call i, nil entries are not checked, and entries past the end of
// the history are compared against the empty descriptor.
func QueriedWith(subject any, expected any, opts ...Option) (Result, error) {
	rec, err := recorder(NameQueriedWith, subject)
	if err != nil {
		return Result{}, err
	}
	cfg := newConfig(opts)

	calls := rec.Calls()
	actual := make([]descriptor.Descriptor, len(calls))
	for i, c := range calls {
		actual[i] = descriptor.Parse(handle(c), cfg.adapter)
	}

	var (
		pass   bool
		blocks func() string
		shown  string
	)
	switch exp := expected.(type) {
	case compare.Expectation:
		pass, blocks, shown = existential(actual, exp, cfg)
	case map[string]any:
		pass, blocks, shown = existential(actual, compare.Expectation(exp), cfg)
	case compare.Sequence:
		pass, blocks, shown = positional(actual, exp, cfg)
	case []compare.Expectation:
		pass, blocks, shown = positional(actual, compare.Sequence(exp), cfg)
	case []map[string]any:
		seq := make(compare.Sequence, len(exp))
		for i, e := range exp {
			seq[i] = e
		}
		pass, blocks, shown = positional(actual, seq, cfg)
	case []any:
		seq, ok := sequenceOf(exp)
		if !ok {
			return Result{}, &MisuseError{Matcher: NameQueriedWith, Subject: expected, Err: ErrBadExpectation}
		}
		pass, blocks, shown = positional(actual, seq, cfg)
	default:
		return Result{}, &MisuseError{Matcher: NameQueriedWith, Subject: expected, Err: ErrBadExpectation}
	}

	cfg.logger.Debug("matcher evaluated",
		"matcher", NameQueriedWith,
		"calls", len(calls),
		"pass", pass)

	return Result{
		Pass:    pass,
		Message: lazy(NameQueriedWith, pass, shown, actual, blocks),
	}, nil
}

// LastQueriedWith asserts on the final recorded call only. With no calls the
// empty descriptor is compared.
func LastQueriedWith(subject any, expected compare.Expectation, opts ...Option) (Result, error) {
	rec, err := recorder(NameLastQueriedWith, subject)
	if err != nil {
		return Result{}, err
	}
	cfg := newConfig(opts)

	calls := rec.Calls()
	var last descriptor.Handle
	if len(calls) > 0 {
		last = handle(calls[len(calls)-1])
	}
	actual := descriptor.Parse(last, cfg.adapter)
	pass := compare.Matches(actual, expected)

	cfg.logger.Debug("matcher evaluated",
		"matcher", NameLastQueriedWith,
		"calls", len(calls),
		"pass", pass)

	blocks := func() string {
		return diff.Render(actual, expected, cfg.styles)
	}
	return Result{
		Pass:    pass,
		Message: lazy(NameLastQueriedWith, pass, formatExpectation(expected), []descriptor.Descriptor{actual}, blocks),
	}, nil
}

func existential(actual []descriptor.Descriptor, exp compare.Expectation, cfg *config) (bool, func() string, string) {
	pass := false
	for _, d := range actual {
		if compare.Matches(d, exp) {
			pass = true
			break
		}
	}

	blocks := func() string {
		if len(actual) == 0 {
			return block("No calls recorded", diff.Render(descriptor.Descriptor{}, exp, cfg.styles))
		}
		out := make([]string, len(actual))
		for i, d := range actual {
			out[i] = block(callLabel(i), diff.Render(d, exp, cfg.styles))
		}
		return joinBlocks(out)
	}
	return pass, blocks, formatExpectation(exp)
}

func positional(actual []descriptor.Descriptor, seq compare.Sequence, cfg *config) (bool, func() string, string) {
	pass := true
	for i, exp := range seq {
		if exp == nil {
			continue
		}
		if !compare.Matches(at(actual, i), exp) {
			pass = false
			break
		}
	}

	blocks := func() string {
		n := max(len(actual), len(seq))
		out := make([]string, n)
		for i := 0; i < n; i++ {
			label := callLabel(i)
			if i >= len(actual) {
				label += " (not made)"
			}
			if i >= len(seq) || seq[i] == nil {
				out[i] = label + ": not checked"
				continue
			}
			out[i] = block(label, diff.Render(at(actual, i), seq[i], cfg.styles))
		}
		return joinBlocks(out)
	}
	return pass, blocks, formatSequence(seq)
}

// at returns descriptor i, or the empty descriptor past the end.
func at(ds []descriptor.Descriptor, i int) descriptor.Descriptor {
	if i < len(ds) {
		return ds[i]
	}
	return descriptor.Descriptor{}
}

// recorder validates the subject before anything else happens.
func recorder(name string, subject any) (spy.Recorder, error) {
	rec, ok := subject.(spy.Recorder)
	if !ok || isNilPointer(subject) {
		return nil, &MisuseError{Matcher: name, Subject: subject, Err: ErrNotRecorder}
	}
	return rec, nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// handle returns the query handle of c, or nil when the argument is missing
// or is not a handle.
func handle(c spy.Call) descriptor.Handle {
	h, ok := c.Arg(handleArg).(descriptor.Handle)
	if !ok || isNilPointer(h) {
		return nil
	}
	return h
}

func lazy(name string, pass bool, shown string, actual []descriptor.Descriptor, blocks func() string) func() string {
	return sync.OnceValue(func() string {
		if pass {
			return negatedMessage(name, shown, actual)
		}
		return failureMessage(name, shown, actual, blocks())
	})
}

// sequenceOf converts an untyped list into a Sequence. nil entries are
// holes; every other entry must be a mapping.
func sequenceOf(list []any) (compare.Sequence, bool) {
	seq := make(compare.Sequence, len(list))
	for i, e := range list {
		switch v := e.(type) {
		case nil:
		case compare.Expectation:
			seq[i] = v
		case map[string]any:
			seq[i] = v
		default:
			return nil, false
		}
	}
	return seq, true
}
