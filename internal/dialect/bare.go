package dialect

import (
	"regexp"
	"strings"
)

var (
	bareInsert      = regexp.MustCompile(`(?is)^\s*insert\s+into\s+[^\s(]+\s*\(([^)]*)\)`)
	bareConditional = regexp.MustCompile("(?i)[`\"]?(\\w+)[`\"]?\\s*=\\s*(?:\\?|\\$\\d+)")
	bareTable       = regexp.MustCompile(`(?is)\b(?:insert\s+into|update|from)\s+([^\s(,;]+)`)
)

// Bare recognises unquoted SQL as emitted by squirrel-style builders:
//
//	SELECT * FROM users WHERE id = ?
//	INSERT INTO users (name,value) VALUES (?,?)
//	UPDATE users SET name = ? WHERE id = $1
//	DELETE FROM public.users WHERE id = ?
//
// Identifiers may also be double-quoted or backquoted. `$N` placeholders
// are paired positionally, like `?`.
type Bare struct{}

// Fields implements Adapter.
func (Bare) Fields(sql string) []string {
	if m := bareInsert.FindStringSubmatch(sql); len(m) == 2 {
		var out []string
		for _, col := range strings.Split(m[1], ",") {
			col = unquote(col)
			if col == "" {
				continue
			}
			out = append(out, col)
		}
		return out
	}
	return submatches(bareConditional, sql)
}

// Table implements Adapter.
func (Bare) Table(sql string) (string, bool) {
	m := bareTable.FindStringSubmatch(sql)
	if len(m) != 2 {
		return "", false
	}
	table := unquote(m[1])
	if table == "" {
		return "", false
	}
	return table, true
}
