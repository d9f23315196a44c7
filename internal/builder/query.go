package builder

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Query is a compiled statement. It satisfies descriptor.Handle.
type Query struct {
	Text string
	Args []any
	Verb string
}

// SQL returns the statement text.
func (q Query) SQL() string { return q.Text }

// Bindings returns the positional arguments.
func (q Query) Bindings() []any { return q.Args }

// Method returns the verb the statement was built with.
func (q Query) Method() string { return q.Verb }

// String renders the query for logs.
func (q Query) String() string {
	return fmt.Sprintf("%s %v", q.Text, q.Args)
}

// Raw wraps SQL text and arguments. The verb is the lower-cased leading
// keyword, or "raw" for empty text.
func Raw(sql string, args ...any) Query {
	return Query{Text: sql, Args: args, Verb: verbOf(sql)}
}

// FromSqlizer compiles a squirrel builder into a Query.
func FromSqlizer(s sq.Sqlizer) (Query, error) {
	if s == nil {
		return Query{}, fmt.Errorf("from sqlizer: nil builder")
	}
	text, args, err := s.ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("from sqlizer: %w", err)
	}
	return Raw(text, args...), nil
}

func verbOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "raw"
	}
	kw := strings.ToLower(fields[0])
	return strings.TrimRight(kw, "(;")
}
