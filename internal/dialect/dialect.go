// Package dialect extracts column names and table names from SQL text.
//
// This is deliberately not a SQL parser. Each Adapter recognises the narrow
// statement shapes one query builder emits, using regular expressions, so a
// stricter implementation can be swapped in without touching comparison or
// rendering.
package dialect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Adapter extracts the pieces of a statement the normalizer needs.
type Adapter interface {
	// Fields returns the column identifiers in the left-to-right order of
	// their placeholders.
	Fields(sql string) []string

	// Table returns the statement's target table, if one is recognised.
	Table(sql string) (string, bool)
}

// Names of the built-in adapters, as used by fixtures and the CLI.
const (
	NameKnex = "knex"
	NameBare = "bare"
)

var registry = map[string]Adapter{
	NameKnex: Knex{},
	NameBare: Bare{},
}

// Default is the adapter used when none is configured.
var Default Adapter = Knex{}

// Lookup resolves an adapter by name. An empty name yields Default.
func Lookup(name string) (Adapter, error) {
	if name == "" {
		return Default, nil
	}
	a, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q: must be one of %v", name, Names())
	}
	return a, nil
}

// Names lists the registered adapter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// unquote strips one layer of identifier quoting from each dotted part.
func unquote(ident string) string {
	parts := strings.Split(strings.TrimSpace(ident), ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, "`\"[]")
		parts[i] = p
	}
	return strings.Join(parts, ".")
}

// submatches returns capture group 1 of every match of re in s.
func submatches(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
