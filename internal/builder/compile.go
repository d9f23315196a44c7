package builder

import (
	"fmt"
	"strings"
)

// Compile converts a statement to parameterized SQL.
// Values are never interpolated; nil filter values compile to `is null`
// and bind nothing.
func Compile(s Statement) (Query, error) {
	if err := Validate(s); err != nil {
		return Query{}, fmt.Errorf("compile: %w", err)
	}

	switch st := s.(type) {
	case SelectStmt:
		where, args := compileWhere(st.Filter)
		return Query{
			Text: fmt.Sprintf(`select * from %s%s`, quote(st.Table), where),
			Args: args,
			Verb: "select",
		}, nil

	case InsertStmt:
		cols := sortedKeys(st.Values)
		names := make([]string, len(cols))
		marks := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, c := range cols {
			names[i] = quote(c)
			marks[i] = "?"
			args[i] = st.Values[c]
		}
		return Query{
			Text: fmt.Sprintf(`insert into %s (%s) values (%s)`,
				quote(st.Table), strings.Join(names, ", "), strings.Join(marks, ", ")),
			Args: args,
			Verb: "insert",
		}, nil

	case UpdateStmt:
		cols := sortedKeys(st.Assign)
		sets := make([]string, len(cols))
		args := make([]any, 0, len(cols)+len(st.Filter))
		for i, c := range cols {
			sets[i] = quote(c) + " = ?"
			args = append(args, st.Assign[c])
		}
		where, whereArgs := compileWhere(st.Filter)
		return Query{
			Text: fmt.Sprintf(`update %s set %s%s`, quote(st.Table), strings.Join(sets, ", "), where),
			Args: append(args, whereArgs...),
			Verb: "update",
		}, nil

	case DeleteStmt:
		where, args := compileWhere(st.Filter)
		return Query{
			Text: fmt.Sprintf(`delete from %s%s`, quote(st.Table), where),
			Args: args,
			Verb: "del",
		}, nil
	}

	// Unreachable: Validate rejects unknown statements.
	return Query{}, fmt.Errorf("compile: unsupported statement type: %T", s)
}

// MustCompile is like Compile but panics on error. For tests and fixtures.
func MustCompile(s Statement) Query {
	q, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return q
}

// compileWhere returns ` where ...` (or "") and its arguments, columns in
// sorted order.
func compileWhere(filter map[string]any) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	var parts []string
	var args []any
	for _, c := range sortedKeys(filter) {
		v := filter[c]
		if v == nil {
			parts = append(parts, quote(c)+" is null")
			continue
		}
		parts = append(parts, quote(c)+" = ?")
		args = append(args, v)
	}
	return " where " + strings.Join(parts, " and "), args
}

func quote(ident string) string {
	return `"` + ident + `"`
}
