package dialect

import "regexp"

var (
	knexInsert      = regexp.MustCompile(`(?i)^insert `)
	knexInsertCol   = regexp.MustCompile(`"[\w-]+"[,)]`)
	knexWord        = regexp.MustCompile(`(\w+)`)
	knexConditional = regexp.MustCompile(`(?i)"?(\w+)"?[ =]+\?`)
	knexTable       = regexp.MustCompile(`(?i)(?:insert into|update|from) "([^"]+)"`)
)

// Knex recognises the double-quoted, `?`-placeholder SQL emitted by
// knex-style builders:
//
//	select * from "users" where "id" = ?
//	insert into "users" ("name", "value") values (?, ?)
//	update "users" set "name" = ? where "id" = ?
//	delete from "users" where "id" = ?
type Knex struct{}

// Fields implements Adapter.
//
// INSERT statements yield the quoted column list; every other statement
// yields identifiers immediately followed by `=` and a placeholder.
func (Knex) Fields(sql string) []string {
	if knexInsert.MatchString(sql) {
		cols := knexInsertCol.FindAllString(sql, -1)
		if len(cols) == 0 {
			return nil
		}
		out := make([]string, 0, len(cols))
		for _, c := range cols {
			out = append(out, knexWord.FindString(c))
		}
		return out
	}
	return submatches(knexConditional, sql)
}

// Table implements Adapter.
func (Knex) Table(sql string) (string, bool) {
	m := knexTable.FindStringSubmatch(sql)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}
