package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/querymatch/internal/dialect"
)

type fakeHandle struct {
	sql      string
	bindings []any
	method   string
}

func (f fakeHandle) SQL() string     { return f.sql }
func (f fakeHandle) Bindings() []any { return f.bindings }
func (f fakeHandle) Method() string  { return f.method }

func TestParse_StatementKinds(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		h    fakeHandle
		want map[string]any
	}{
		{
			name: "select without filters",
			h:    fakeHandle{sql: `select * from "users"`, method: "select"},
			want: map[string]any{"method": "select", "table": "users"},
		},
		{
			name: "select with filters",
			h: fakeHandle{
				sql:      `select * from "users" where "id" = ? and "status" = ?`,
				bindings: []any{5, "active"},
				method:   "select",
			},
			want: map[string]any{"method": "select", "table": "users", "id": 5, "status": "active"},
		},
		{
			name: "insert",
			h: fakeHandle{
				sql:      `insert into "users" ("name", "value") values (?, ?)`,
				bindings: []any{"Ann", 1},
				method:   "insert",
			},
			want: map[string]any{"method": "insert", "table": "users", "name": "Ann", "value": 1},
		},
		{
			name: "update",
			h: fakeHandle{
				sql:      `update "users" set "name" = ? where "id" = ?`,
				bindings: []any{"Bo", 5},
				method:   "update",
			},
			want: map[string]any{"method": "update", "table": "users", "name": "Bo", "id": 5},
		},
		{
			name: "delete spelled del",
			h: fakeHandle{
				sql:      `delete from "users" where "id" = ?`,
				bindings: []any{9},
				method:   "del",
			},
			want: map[string]any{"method": "delete", "table": "users", "id": 9},
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tc.h, nil)
			assert.Equal(t, tc.want, got.Map())
		})
	}
}

func TestParse_NilHandle(t *testing.T) {
	d := Parse(nil, nil)
	assert.True(t, d.IsEmpty())
	assert.Empty(t, d.Map())
	assert.Empty(t, d.Keys())
}

func TestParse_ZipTruncatesToShorter(t *testing.T) {
	moreNames := fakeHandle{
		sql:      `update "users" set "name" = ?, "value" = ? where "id" = ?`,
		bindings: []any{"Bo"},
		method:   "update",
	}
	d := Parse(moreNames, nil)
	assert.Equal(t, map[string]any{"name": "Bo"}, d.Fields)

	moreBindings := fakeHandle{
		sql:      `select * from "users" where "id" = ?`,
		bindings: []any{1, 2, 3},
		method:   "select",
	}
	d = Parse(moreBindings, nil)
	assert.Equal(t, map[string]any{"id": 1}, d.Fields)
}

func TestParse_DuplicateColumnKeepsLast(t *testing.T) {
	h := fakeHandle{
		sql:      `select * from "users" where "id" = ? or "id" = ?`,
		bindings: []any{1, 2},
		method:   "select",
	}
	assert.Equal(t, map[string]any{"id": 2}, Parse(h, nil).Fields)

	unbound := fakeHandle{
		sql:      `select * from "users" where "id" = ? and "id" = ?`,
		bindings: []any{5},
		method:   "select",
	}
	assert.Empty(t, Parse(unbound, nil).Fields)
}

func TestParse_UnrecognisedSQL(t *testing.T) {
	h := fakeHandle{sql: "vacuum", bindings: []any{1}, method: "raw"}
	d := Parse(h, nil)
	assert.False(t, d.HasTable)
	assert.Empty(t, d.Fields)
	assert.Equal(t, map[string]any{"method": "raw"}, d.Map())
}

func TestParse_Adapter(t *testing.T) {
	h := fakeHandle{
		sql:      "UPDATE users SET name = ? WHERE id = ?",
		bindings: []any{"Bo", 5},
		method:   "update",
	}

	knex := Parse(h, dialect.Knex{})
	assert.False(t, knex.HasTable)

	bare := Parse(h, dialect.Bare{})
	assert.Equal(t, map[string]any{"method": "update", "table": "users", "name": "Bo", "id": 5}, bare.Map())
}

func TestMap_TableAndMethodOverwriteColumns(t *testing.T) {
	h := fakeHandle{
		sql:      `select * from "jobs" where "method" = ? and "table" = ?`,
		bindings: []any{"GET", "t1"},
		method:   "select",
	}
	d := Parse(h, nil)
	assert.Equal(t, "GET", d.Fields["method"])
	assert.Equal(t, map[string]any{"method": "select", "table": "jobs"}, d.Map())
	assert.Equal(t, []string{"method", "table"}, d.Keys())
}

func TestCanonicalMethod(t *testing.T) {
	assert.Equal(t, MethodDelete, CanonicalMethod("del"))
	assert.Equal(t, MethodSelect, CanonicalMethod("select"))
	assert.Equal(t, "first", CanonicalMethod("first"))
}
