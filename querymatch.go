// Package querymatch asserts on the SQL an application sent through a query
// hook.
//
// Record every hook invocation on a Spy, then check the history:
//
//	rec := querymatch.NewSpy()
//	hook := rec.Hook() // register with the query builder's query event
//	// or record a database/sql pool: db := querymatch.OpenDB(drv, dsn, rec)
//
//	// ... exercise the code under test ...
//
//	querymatch.AssertLastQueriedWith(t, rec, querymatch.Expect{
//		"method": "update",
//		"table":  "users",
//		"id":     5,
//		"name":   querymatch.Regexp(`^B`),
//	})
//
// Each recorded call is reduced to a flat mapping of method, table and
// column/value pairs and compared against the expectation over the union of
// both key sets: every column sent must be expected and every expected key
// must be present. Expected keys may be camelCase; they are compared in
// snake_case.
//
// Expected values may be literals (compared by their string form), maps and
// slices (the actual value must be a JSON string encoding them), patterns
// from Regexp, the Date sentinel, or predicates from Pred.
package querymatch

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/querymatch/internal/builder"
	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/descriptor"
	"github.com/roach88/querymatch/internal/dialect"
	"github.com/roach88/querymatch/internal/diff"
	"github.com/roach88/querymatch/internal/matcher"
	"github.com/roach88/querymatch/internal/spy"
	"github.com/roach88/querymatch/internal/store"
	"github.com/roach88/querymatch/internal/value"
)

type (
	// Expect maps column names (and "method", "table") to expected values.
	Expect = compare.Expectation

	// Sequence is a positional expectation; nil entries match any call.
	Sequence = compare.Sequence

	// Expected is a classified expectation value.
	Expected = value.Expected

	// Result is an assertion verdict with a lazily built message.
	Result = matcher.Result

	// Option configures an assertion.
	Option = matcher.Option

	// Dialect extracts columns and tables from SQL text.
	Dialect = dialect.Adapter

	// Recorder is anything exposing an ordered call history.
	Recorder = spy.Recorder

	// Spy records hook invocations.
	Spy = spy.Spy

	// Call is one recorded invocation.
	Call = spy.Call

	// Handle is the query value a hook receives.
	Handle = descriptor.Handle

	// Query is a concrete Handle.
	Query = builder.Query

	// MisuseError reports an assertion called with the wrong arguments.
	MisuseError = matcher.MisuseError

	// Store holds capture sessions for `querymatch check --db`.
	Store = store.Store

	// Session identifies one capture session.
	Session = store.Session
)

// Date requires the actual value to already be a valid date.
var Date Expected = value.Date

// Built-in dialects.
var (
	Knex Dialect = dialect.Knex{}
	Bare Dialect = dialect.Bare{}
)

// Misuse causes, for errors.Is.
var (
	ErrNotRecorder    = matcher.ErrNotRecorder
	ErrBadExpectation = matcher.ErrBadExpectation
)

// NewSpy returns an empty recorder.
func NewSpy() *Spy {
	return spy.New()
}

// OpenDB opens a database through inner, recording every statement on s.
func OpenDB(inner driver.Driver, dsn string, s *Spy) *sql.DB {
	return spy.OpenDB(inner, dsn, s)
}

// OpenStore opens or creates a capture store at path.
func OpenStore(path string) (*Store, error) {
	return store.Open(path)
}

// Capture starts a session called name in st and returns a spy that also
// writes every recorded call into it. Fixtures name the returned session's
// ID in their session field to replay it.
func Capture(ctx context.Context, st *Store, name string) (*Spy, Session, error) {
	sess, err := st.CreateSession(ctx, name)
	if err != nil {
		return nil, Session{}, err
	}
	return spy.New(spy.WithSink(st.Sink(ctx, sess.ID, nil))), sess, nil
}

// Raw wraps SQL text and bindings as a Handle.
func Raw(sql string, args ...any) Query {
	return builder.Raw(sql, args...)
}

// Regexp returns a pattern expectation. It panics if pattern does not
// compile.
func Regexp(pattern string) Expected {
	return value.MustPattern(pattern)
}

// Pred returns a predicate expectation.
func Pred(fn func(actual any) bool) Expected {
	return value.Predicate(fn)
}

// WithDialect selects how SQL text is read. Defaults to Knex.
func WithDialect(d Dialect) Option {
	return matcher.WithDialect(d)
}

// WithColor turns diff colouring on or off. Messages are plain by default.
func WithColor(on bool) Option {
	return matcher.WithStyles(diff.NewStyles(on))
}

// WithLogger sets a logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return matcher.WithLogger(l)
}

// QueriedWith checks the whole history. expected is an Expect (passes when
// any call matches) or a Sequence (call i must match entry i).
func QueriedWith(subject any, expected any, opts ...Option) (Result, error) {
	return matcher.QueriedWith(subject, expected, opts...)
}

// LastQueriedWith checks the most recent call only.
func LastQueriedWith(subject any, expected Expect, opts ...Option) (Result, error) {
	return matcher.LastQueriedWith(subject, expected, opts...)
}

type tHelper interface {
	Helper()
}

// AssertQueriedWith fails t unless QueriedWith passes.
func AssertQueriedWith(t assert.TestingT, subject any, expected any, opts ...Option) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	res, err := QueriedWith(subject, expected, opts...)
	return report(t, res, err, false)
}

// AssertNotQueriedWith fails t if QueriedWith passes.
func AssertNotQueriedWith(t assert.TestingT, subject any, expected any, opts ...Option) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	res, err := QueriedWith(subject, expected, opts...)
	return report(t, res, err, true)
}

// AssertLastQueriedWith fails t unless LastQueriedWith passes.
func AssertLastQueriedWith(t assert.TestingT, subject any, expected Expect, opts ...Option) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	res, err := LastQueriedWith(subject, expected, opts...)
	return report(t, res, err, false)
}

// AssertNotLastQueriedWith fails t if LastQueriedWith passes.
func AssertNotLastQueriedWith(t assert.TestingT, subject any, expected Expect, opts ...Option) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	res, err := LastQueriedWith(subject, expected, opts...)
	return report(t, res, err, true)
}

// report turns a verdict into a testify failure. A negated assertion
// succeeds when the matcher did not pass.
func report(t assert.TestingT, res Result, err error, negated bool) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if err != nil {
		return assert.Fail(t, "misuse: "+err.Error())
	}
	if res.Pass != negated {
		return true
	}
	return assert.Fail(t, res.Message())
}
