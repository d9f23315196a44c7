package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querymatch/internal/dialect"
)

func TestKnex(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name       string
		sql        string
		wantFields []string
		wantTable  string
		wantOK     bool
	}{
		{
			name:      "select star",
			sql:       `select * from "users"`,
			wantTable: "users",
			wantOK:    true,
		},
		{
			name:       "select with where",
			sql:        `select * from "users" where "id" = ? and "status" = ?`,
			wantFields: []string{"id", "status"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "insert",
			sql:        `insert into "users" ("name", "value") values (?, ?)`,
			wantFields: []string{"name", "value"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "insert upper case keyword",
			sql:        `INSERT into "audit_log" ("created_at","user_id") values (?, ?)`,
			wantFields: []string{"created_at", "user_id"},
			wantTable:  "audit_log",
			wantOK:     true,
		},
		{
			name:       "update",
			sql:        `update "users" set "name" = ?, "value" = ? where "id" = ?`,
			wantFields: []string{"name", "value", "id"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "delete",
			sql:        `delete from "users" where "id" = ?`,
			wantFields: []string{"id"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "limit placeholder is picked up like a column",
			sql:        `select * from "users" where "id" = ? limit ?`,
			wantFields: []string{"id", "limit"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "unquoted table is not recognised",
			sql:        `select * from users where id = ?`,
			wantFields: []string{"id"},
			wantOK:     false,
		},
		{
			name:   "garbage",
			sql:    `vacuum`,
			wantOK: false,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var k dialect.Knex
			assert.Equal(t, tc.wantFields, k.Fields(tc.sql))
			table, ok := k.Table(tc.sql)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantTable, table)
		})
	}
}

func TestBare(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name       string
		sql        string
		wantFields []string
		wantTable  string
		wantOK     bool
	}{
		{
			name:      "select star",
			sql:       "SELECT * FROM users",
			wantTable: "users",
			wantOK:    true,
		},
		{
			name:       "select with where",
			sql:        "SELECT id, name FROM users WHERE id = ? AND name = ?",
			wantFields: []string{"id", "name"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "insert",
			sql:        "INSERT INTO users (name,value) VALUES (?,?)",
			wantFields: []string{"name", "value"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "insert with quoted columns",
			sql:        "insert into `orders` (`id`, \"total\") values (?, ?)",
			wantFields: []string{"id", "total"},
			wantTable:  "orders",
			wantOK:     true,
		},
		{
			name:       "update with dollar placeholders",
			sql:        "UPDATE users SET name = $1 WHERE id = $2",
			wantFields: []string{"name", "id"},
			wantTable:  "users",
			wantOK:     true,
		},
		{
			name:       "delete schema qualified",
			sql:        `DELETE FROM "public"."users" WHERE id = ?`,
			wantFields: []string{"id"},
			wantTable:  "public.users",
			wantOK:     true,
		},
		{
			name:   "no table",
			sql:    "SELECT 1",
			wantOK: false,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var b dialect.Bare
			assert.Equal(t, tc.wantFields, b.Fields(tc.sql))
			table, ok := b.Table(tc.sql)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantTable, table)
		})
	}
}

func TestLookup(t *testing.T) {
	a, err := dialect.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, dialect.Default, a)

	a, err = dialect.Lookup("BARE")
	require.NoError(t, err)
	assert.IsType(t, dialect.Bare{}, a)

	_, err = dialect.Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "oracle"`)

	assert.Equal(t, []string{"bare", "knex"}, dialect.Names())
}
