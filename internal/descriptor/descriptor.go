// Package descriptor reconstructs a canonical description of a captured
// query: its method, its table and a column-to-bound-value mapping.
package descriptor

import (
	"maps"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/querymatch/internal/dialect"
)

// Handle is the compiled query a builder hands to the execution hook.
// The normalizer only reads from it.
type Handle interface {
	SQL() string
	Bindings() []any
	Method() string
}

// Canonical method names.
const (
	MethodSelect = "select"
	MethodInsert = "insert"
	MethodUpdate = "update"
	MethodDelete = "delete"
)

// Reserved keys of the flat mapping returned by Map.
const (
	KeyTable  = "table"
	KeyMethod = "method"
)

// Descriptor is the canonical reconstruction of one query.
// The zero value is the empty descriptor used when no call happened.
type Descriptor struct {
	Method   string
	Table    string
	HasTable bool
	Fields   map[string]any
}

// Parse normalizes h using adapter a. A nil handle yields the empty
// descriptor. A nil adapter means dialect.Default.
//
// Extraction is best-effort and never fails: SQL the adapter cannot read
// produces a partial descriptor, which simply fails later comparisons.
//
// Column names are zipped positionally with the bindings and the zip is
// truncated to the shorter of the two. A column named twice keeps the
// binding of its last occurrence, and is absent when that occurrence has
// no binding.
func Parse(h Handle, a dialect.Adapter) Descriptor {
	if h == nil {
		return Descriptor{}
	}
	if a == nil {
		a = dialect.Default
	}

	sql := h.SQL()
	bindings := h.Bindings()
	names := a.Fields(sql)

	last := make(map[string]int, len(names))
	for i, name := range names {
		last[norm.NFC.String(name)] = i
	}
	fields := make(map[string]any, len(last))
	for name, i := range last {
		if i < len(bindings) {
			fields[name] = bindings[i]
		}
	}

	d := Descriptor{
		Method: CanonicalMethod(h.Method()),
		Fields: fields,
	}
	d.Table, d.HasTable = a.Table(sql)
	return d
}

// CanonicalMethod maps builder method spellings to the canonical names.
func CanonicalMethod(m string) string {
	if m == "del" {
		return MethodDelete
	}
	return m
}

// Map returns the flat mapping compared against expectations: every field,
// then table and method, which overwrite same-named columns. Absent parts
// are absent keys.
func (d Descriptor) Map() map[string]any {
	out := make(map[string]any, len(d.Fields)+2)
	maps.Copy(out, d.Fields)
	if d.HasTable {
		out[KeyTable] = d.Table
	}
	if d.Method != "" {
		out[KeyMethod] = d.Method
	}
	return out
}

// Keys returns the keys of Map in sorted order.
func (d Descriptor) Keys() []string {
	m := d.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether d carries no information at all.
func (d Descriptor) IsEmpty() bool {
	return d.Method == "" && !d.HasTable && len(d.Fields) == 0
}
