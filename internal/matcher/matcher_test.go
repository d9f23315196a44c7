package matcher

import (
	"bytes"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querymatch/internal/builder"
	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/dialect"
	"github.com/roach88/querymatch/internal/spy"
	"github.com/roach88/querymatch/internal/value"
)

// record runs each statement through a hook-shaped spy, the way a database
// layer would report them.
func record(t *testing.T, stmts ...builder.Statement) *spy.Spy {
	t.Helper()
	s := spy.New()
	hook := s.Hook()
	for _, st := range stmts {
		q, err := builder.Compile(st)
		require.NoError(t, err)
		hook(nil, q)
	}
	return s
}

func TestLastQueriedWith_SelectWithoutFilters(t *testing.T) {
	s := record(t, builder.Select("users"))

	res, err := LastQueriedWith(s, compare.Expectation{"method": "select", "table": "users"})
	require.NoError(t, err)
	assert.True(t, res.Pass)
	assert.Contains(t, res.Message(), "Expected not to have been queried with:")
}

func TestLastQueriedWith_InsertCoercesValues(t *testing.T) {
	s := record(t, builder.Insert("users", map[string]any{"name": "Ann", "value": 1}))

	res, err := LastQueriedWith(s, compare.Expectation{
		"method": "insert",
		"table":  "users",
		"name":   "Ann",
		"value":  "1",
	})
	require.NoError(t, err)
	assert.True(t, res.Pass)

	res, err = LastQueriedWith(s, compare.Expectation{
		"method": "insert",
		"table":  "users",
		"name":   "Ann",
		"value":  1,
	})
	require.NoError(t, err)
	assert.True(t, res.Pass)
}

func TestLastQueriedWith_UpdateMismatchDiff(t *testing.T) {
	s := record(t, builder.Update("users").
		Set(map[string]any{"name": "Bo"}).
		Where(map[string]any{"id": 5}))

	res, err := LastQueriedWith(s, compare.Expectation{
		"method": "update",
		"table":  "users",
		"id":     6,
		"name":   "Bo",
	})
	require.NoError(t, err)
	require.False(t, res.Pass)

	msg := res.Message()
	assert.Contains(t, msg, "Difference:")
	assert.Contains(t, msg, "- id: 6\n+ id: 5")
	assert.Equal(t, 1, strings.Count(msg, "- id:"))
	assert.Equal(t, 1, strings.Count(msg, "+ id:"))
	assert.Contains(t, msg, `  name: "Bo"`)
}

func TestLastQueriedWith_OnlyLastCallCounts(t *testing.T) {
	s := record(t,
		builder.Select("accounts"),
		builder.Delete("users").Where(map[string]any{"id": 9}),
	)

	res, err := LastQueriedWith(s, compare.Expectation{"method": "select", "table": "accounts"})
	require.NoError(t, err)
	assert.False(t, res.Pass)

	res, err = LastQueriedWith(s, compare.Expectation{"method": "delete", "table": "users", "id": 9})
	require.NoError(t, err)
	assert.True(t, res.Pass)
}

func TestLastQueriedWith_NoCalls(t *testing.T) {
	res, err := LastQueriedWith(spy.New(), compare.Expectation{"table": "users"})
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Message(), `- table: "users"`)

	res, err = LastQueriedWith(spy.New(), compare.Expectation{})
	require.NoError(t, err)
	assert.True(t, res.Pass)
}

func TestQueriedWith_SingleExpectationIsExistential(t *testing.T) {
	s := record(t,
		builder.Select("a"),
		builder.Select("b"),
		builder.Select("c"),
	)

	for _, table := range []string{"a", "b", "c"} {
		res, err := QueriedWith(s, compare.Expectation{"method": "select", "table": table})
		require.NoError(t, err)
		assert.True(t, res.Pass, "table %s", table)
	}

	res, err := QueriedWith(s, map[string]any{"method": "select", "table": "d"})
	require.NoError(t, err)
	assert.False(t, res.Pass)

	msg := res.Message()
	assert.Contains(t, msg, "Call 1:")
	assert.Contains(t, msg, "Call 3:")
	assert.Contains(t, msg, `- table: "d"`)
}

func TestQueriedWith_SequenceIsPositionalWithHoles(t *testing.T) {
	s := record(t,
		builder.Select("a"),
		builder.Select("b"),
		builder.Select("c"),
	)

	seq := compare.Sequence{
		{"method": "select", "table": "a"},
		nil,
		{"method": "select", "table": "c"},
	}
	res, err := QueriedWith(s, seq)
	require.NoError(t, err)
	assert.True(t, res.Pass)

	// The hole really is unchecked.
	seq[1] = compare.Expectation{"table": "nope"}
	res, err = QueriedWith(s, seq)
	require.NoError(t, err)
	assert.False(t, res.Pass)

	// Order matters.
	res, err = QueriedWith(s, []map[string]any{
		{"method": "select", "table": "c"},
		nil,
		{"method": "select", "table": "a"},
	})
	require.NoError(t, err)
	assert.False(t, res.Pass)
}

func TestQueriedWith_UntypedSequence(t *testing.T) {
	s := record(t, builder.Select("a"), builder.Select("b"))

	res, err := QueriedWith(s, []any{
		map[string]any{"method": "select", "table": "a"},
		nil,
	})
	require.NoError(t, err)
	assert.True(t, res.Pass)

	res, err = QueriedWith(s, []any{
		nil,
		compare.Expectation{"method": "select", "table": "a"},
	})
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Message(), "Call 2:")

	_, err = QueriedWith(s, []any{map[string]any{"method": "select"}, "users"})
	require.ErrorIs(t, err, ErrBadExpectation)
}

func TestQueriedWith_SequenceMessageLabelsPositions(t *testing.T) {
	s := record(t, builder.Select("a"), builder.Select("b"))

	res, err := QueriedWith(s, []compare.Expectation{
		{"method": "select", "table": "x"},
		nil,
		{"method": "select", "table": "c"},
	})
	require.NoError(t, err)
	require.False(t, res.Pass)

	msg := res.Message()
	assert.Contains(t, msg, "Call 2: not checked")
	assert.Contains(t, msg, "Call 3 (not made):")
	assert.Contains(t, msg, `[{method: "select", table: "x"}, <any>, {method: "select", table: "c"}]`)
}

func TestQueriedWith_SequenceLongerThanHistoryFails(t *testing.T) {
	s := record(t, builder.Select("a"))

	res, err := QueriedWith(s, compare.Sequence{
		{"method": "select", "table": "a"},
		{"method": "select", "table": "b"},
	})
	require.NoError(t, err)
	assert.False(t, res.Pass)

	// A trailing hole past the end is still fine.
	res, err = QueriedWith(s, compare.Sequence{{"method": "select", "table": "a"}, nil})
	require.NoError(t, err)
	assert.True(t, res.Pass)
}

func TestQueriedWith_ClosedWorld(t *testing.T) {
	s := record(t, builder.Select("users").Where(map[string]any{"id": 1, "status": "active"}))

	res, err := QueriedWith(s, compare.Expectation{"method": "select", "table": "users", "id": 1})
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Message(), `+ status: "active"`)
}

func TestQueriedWith_ValueShapes(t *testing.T) {
	s := record(t, builder.Insert("events", map[string]any{
		"payload":    `{"kind":"signup","tags":["a"]}`,
		"created_at": "2024-05-01T10:00:00Z",
		"email":      "ann@example.com",
		"attempts":   3,
	}))

	res, err := QueriedWith(s, compare.Expectation{
		"method":    "insert",
		"table":     "events",
		"payload":   map[string]any{"kind": "signup", "tags": []any{"a"}},
		"createdAt": value.Date,
		"email":     regexp.MustCompile(`@example\.com$`),
		"attempts":  func(v any) bool { return value.Coerce(v) == "3" },
	})
	require.NoError(t, err)
	assert.True(t, res.Pass, res.Message())
}

func TestQueriedWith_BareDialect(t *testing.T) {
	q, err := builder.FromSqlizer(sq.Update("users").Set("name", "Bo").Where(sq.Eq{"id": 5}))
	require.NoError(t, err)

	s := spy.New()
	s.Record(nil, q)

	exp := compare.Expectation{"method": "update", "table": "users", "name": "Bo", "id": 5}

	res, err := QueriedWith(s, exp)
	require.NoError(t, err)
	assert.False(t, res.Pass, "knex cannot read unquoted SQL")

	res, err = QueriedWith(s, exp, WithDialect(dialect.Bare{}))
	require.NoError(t, err)
	assert.True(t, res.Pass)
}

func TestQueriedWith_NonHandleArgumentIsAbsent(t *testing.T) {
	s := spy.New()
	s.Record(nil, "not a query")
	s.Record(nil)

	res, err := QueriedWith(s, compare.Sequence{{}, {}})
	require.NoError(t, err)
	assert.True(t, res.Pass)
}

func TestMisuse(t *testing.T) {
	plainFunc := func() {}

	_, err := QueriedWith(plainFunc, compare.Expectation{})
	var misuse *MisuseError
	require.ErrorAs(t, err, &misuse)
	assert.Equal(t, NameQueriedWith, misuse.Matcher)
	assert.True(t, errors.Is(err, ErrNotRecorder))

	_, err = LastQueriedWith(plainFunc, compare.Expectation{})
	require.ErrorIs(t, err, ErrNotRecorder)
	assert.Contains(t, err.Error(), "LastQueriedWith: value must be a query recorder (received func())")

	var nilSpy *spy.Spy
	_, err = LastQueriedWith(nilSpy, compare.Expectation{})
	require.ErrorIs(t, err, ErrNotRecorder)

	_, err = QueriedWith(spy.New(), "users")
	require.ErrorIs(t, err, ErrBadExpectation)
}

func TestMessage_IsLazy(t *testing.T) {
	calls := 0
	never := func(any) bool {
		calls++
		return false
	}
	s := record(t, builder.Select("users"))

	res, err := QueriedWith(s, compare.Expectation{"method": "select", "table": never})
	require.NoError(t, err)
	assert.False(t, res.Pass)
	before := calls

	first := res.Message()
	assert.Greater(t, calls, before, "the diff re-evaluates matches when rendered")
	after := calls

	assert.Equal(t, first, res.Message())
	assert.Equal(t, after, calls, "message is computed once")
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := LastQueriedWith(record(t, builder.Select("users")), compare.Expectation{}, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "matcher=LastQueriedWith")
	assert.Contains(t, buf.String(), "pass=false")
}
