package builder

import (
	"fmt"
	"maps"
	"regexp"
	"sort"
)

// Statement is a sealed interface over the supported statement kinds.
type Statement interface {
	statement()
}

// SelectStmt reads every column of Table, optionally filtered.
type SelectStmt struct {
	Table  string
	Filter map[string]any
}

func (SelectStmt) statement() {}

// InsertStmt writes one row.
type InsertStmt struct {
	Table  string
	Values map[string]any
}

func (InsertStmt) statement() {}

// UpdateStmt applies Assign to the rows matching Filter.
type UpdateStmt struct {
	Table  string
	Assign map[string]any
	Filter map[string]any
}

func (UpdateStmt) statement() {}

// DeleteStmt removes the rows matching Filter.
type DeleteStmt struct {
	Table  string
	Filter map[string]any
}

func (DeleteStmt) statement() {}

// Select starts a select statement.
func Select(table string) SelectStmt {
	return SelectStmt{Table: table}
}

// Where adds equality conditions. Later calls override earlier columns.
func (s SelectStmt) Where(cond map[string]any) SelectStmt {
	s.Filter = merge(s.Filter, cond)
	return s
}

// Compile is shorthand for Compile(s).
func (s SelectStmt) Compile() (Query, error) { return Compile(s) }

// Insert builds an insert statement.
func Insert(table string, values map[string]any) InsertStmt {
	return InsertStmt{Table: table, Values: merge(nil, values)}
}

// Compile is shorthand for Compile(s).
func (s InsertStmt) Compile() (Query, error) { return Compile(s) }

// Update starts an update statement.
func Update(table string) UpdateStmt {
	return UpdateStmt{Table: table}
}

// Set adds assignments.
func (s UpdateStmt) Set(values map[string]any) UpdateStmt {
	s.Assign = merge(s.Assign, values)
	return s
}

// Where adds equality conditions.
func (s UpdateStmt) Where(cond map[string]any) UpdateStmt {
	s.Filter = merge(s.Filter, cond)
	return s
}

// Compile is shorthand for Compile(s).
func (s UpdateStmt) Compile() (Query, error) { return Compile(s) }

// Delete starts a delete statement.
func Delete(table string) DeleteStmt {
	return DeleteStmt{Table: table}
}

// Where adds equality conditions.
func (s DeleteStmt) Where(cond map[string]any) DeleteStmt {
	s.Filter = merge(s.Filter, cond)
	return s
}

// Compile is shorthand for Compile(s).
func (s DeleteStmt) Compile() (Query, error) { return Compile(s) }

// merge returns a fresh map so statements never alias caller maps.
func merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that s can be compiled: the table and every column must
// be plain identifiers, inserts need values and updates need assignments.
func Validate(s Statement) error {
	switch st := s.(type) {
	case SelectStmt:
		return validate(st.Table, st.Filter)
	case InsertStmt:
		if len(st.Values) == 0 {
			return fmt.Errorf("insert into %q: no values", st.Table)
		}
		return validate(st.Table, st.Values)
	case UpdateStmt:
		if len(st.Assign) == 0 {
			return fmt.Errorf("update %q: no assignments", st.Table)
		}
		if err := validate(st.Table, st.Assign); err != nil {
			return err
		}
		return validate(st.Table, st.Filter)
	case DeleteStmt:
		return validate(st.Table, st.Filter)
	case nil:
		return fmt.Errorf("nil statement")
	default:
		return fmt.Errorf("unsupported statement type: %T", s)
	}
}

func validate(table string, cols map[string]any) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	for _, col := range sortedKeys(cols) {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("table %q: invalid column name %q", table, col)
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
