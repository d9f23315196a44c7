package scenario

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querymatch/internal/builder"
	"github.com/roach88/querymatch/internal/spy"
	"github.com/roach88/querymatch/internal/store"
	"github.com/roach88/querymatch/internal/testutil"
)

// TestFixtures runs every fixture under testdata and compares its report
// with the golden file of the same name.
func TestFixtures(t *testing.T) {
	tests := []struct {
		path string
		pass bool
	}{
		{path: "testdata/update_users.yaml", pass: true},
		{path: "testdata/insert_profile.yaml", pass: true},
		{path: "testdata/delete_users.cue", pass: true},
		{path: "testdata/failing_update.yaml", pass: false},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			s, err := Load(tt.path)
			require.NoError(t, err, "failed to load %s", tt.path)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, result.Pass)

			AssertGolden(t, s.Name, result)
		})
	}
}

func TestRunWithGolden(t *testing.T) {
	s, err := Load("testdata/update_users.yaml")
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, s))
}

func TestRun_ReportsFailures(t *testing.T) {
	s, err := Load("testdata/failing_update.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, 1, result.Calls)
	require.Len(t, result.Failures(), 2)

	first := result.Reports[0]
	assert.Equal(t, "last_queried_with", first.Label())
	assert.Contains(t, first.Message, "Difference:")

	second := result.Reports[1]
	assert.Equal(t, "not queried_with", second.Label())
	assert.Contains(t, second.Message, "Expected not to have been queried with:")
}

func TestRun_PassingReportsHaveNoMessage(t *testing.T) {
	s, err := Load("testdata/update_users.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Failures())
	for _, rep := range result.Reports {
		assert.Empty(t, rep.Message)
	}
}

func TestRun_EmptyHistory(t *testing.T) {
	s, err := Parse([]byte(`
name: empty
description: nothing was queried
calls: []
assertions:
  - type: queried_with
    not: true
    expect: {method: select}
  - type: last_queried_with
    expect: {}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Text())
	assert.Equal(t, 0, result.Calls)
}

func TestRun_Session(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "capture.db"),
		store.WithIDGenerator(testutil.NewSequentialIDs("capture")))
	require.NoError(t, err)
	defer st.Close()

	sess, err := st.CreateSession(ctx, "signup")
	require.NoError(t, err)
	require.Equal(t, "capture-0001", sess.ID)

	rec := spy.New(spy.WithSink(st.Sink(ctx, sess.ID, nil)))
	rec.Record(nil, builder.MustCompile(builder.Insert("users", map[string]any{"email": "a@b.c"})))
	rec.Record(nil, builder.MustCompile(builder.Update("users").
		Set(map[string]any{"verified": true}).
		Where(map[string]any{"email": "a@b.c"})))

	s, err := Parse([]byte(`
name: signup_session
description: replay a captured signup
session: capture-0001
assertions:
  - type: queried_with
    sequence:
      - {method: insert, table: users, email: a@b.c}
      - {method: update, table: users, email: a@b.c, verified: true}
  - type: last_queried_with
    expect: {method: update, table: users, email: a@b.c, verified: 'true'}
`))
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result, err := Run(ctx, s, WithStore(st), WithLogger(logger))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Text())
	assert.Equal(t, 2, result.Calls)
	assert.Contains(t, logs.String(), "session replayed")
	assert.Contains(t, logs.String(), "scenario evaluated")
}

func TestRun_SessionErrors(t *testing.T) {
	s, err := Parse([]byte(`
name: orphan
description: session without a store
session: nope
assertions: [{type: last_queried_with, expect: {}}]
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a store")

	st, err := store.Open(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = Run(context.Background(), s, WithStore(st))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `session "nope" not found`)
}

func TestRun_MethodOverride(t *testing.T) {
	s := &Scenario{
		Name:        "override",
		Description: "explicit verb wins over the SQL keyword",
		Calls: []CallStep{
			{SQL: `delete from "users" where "id" = ?`, Bindings: []any{1}, Method: "del"},
		},
		Assertions: []Assertion{
			{Type: AssertLastQueriedWith, Expect: Expectation{"method": "delete", "table": "users", "id": 1}},
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Text())
}
