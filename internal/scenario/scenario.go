package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querymatch/internal/dialect"
)

// Scenario is one fixture file.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Dialect selects the SQL adapter: knex (default) or bare.
	Dialect string `yaml:"dialect,omitempty"`

	// Session replays a stored capture session instead of inline calls.
	// Requires a store (see WithStore).
	Session string `yaml:"session,omitempty"`

	// Calls are recorded in order before the assertions run.
	Calls []CallStep `yaml:"calls,omitempty"`

	// Assertions are evaluated in order against the recorded calls.
	Assertions []Assertion `yaml:"assertions"`
}

// CallStep is one inline hook invocation.
type CallStep struct {
	SQL      string `yaml:"sql"`
	Bindings []any  `yaml:"bindings,omitempty"`

	// Method overrides the verb inferred from the SQL's leading keyword,
	// e.g. "del" for builders that report deletes that way.
	Method string `yaml:"method,omitempty"`
}

// Assertion is one matcher invocation.
type Assertion struct {
	// Type is queried_with or last_queried_with.
	Type string `yaml:"type"`

	// Not negates the assertion.
	Not bool `yaml:"not,omitempty"`

	// Expect is a single expectation. For queried_with it passes when any
	// call matches.
	Expect Expectation `yaml:"expect,omitempty"`

	// Sequence is a positional expectation for queried_with. Null entries
	// are holes.
	Sequence []Expectation `yaml:"sequence,omitempty"`
}

// Assertion type constants.
const (
	AssertQueriedWith     = "queried_with"
	AssertLastQueriedWith = "last_queried_with"
)

// Load reads a fixture file. The format is chosen by extension: .cue files
// are evaluated as CUE, everything else is parsed as YAML.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".cue") {
		data, err = cueToJSON(path, data)
		if err != nil {
			return nil, err
		}
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes and validates YAML (or JSON) fixture content.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Find returns the fixture files in dir whose base name matches pattern
// (a filepath.Match glob; empty matches everything), sorted by path.
func Find(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".cue":
		default:
			continue
		}
		if pattern != "" {
			ok, err := filepath.Match(pattern, e.Name())
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Validate checks that required fields are present and consistent.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := dialect.Lookup(s.Dialect); err != nil {
		return err
	}

	if s.Session != "" && len(s.Calls) > 0 {
		return fmt.Errorf("session and calls are mutually exclusive")
	}
	if s.Session == "" && s.Calls == nil {
		return fmt.Errorf("calls list or session is required")
	}

	for i, c := range s.Calls {
		if strings.TrimSpace(c.SQL) == "" {
			return fmt.Errorf("calls[%d]: sql is required", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertQueriedWith:
		if a.Expect == nil && a.Sequence == nil {
			return fmt.Errorf("assertions[%d]: expect or sequence is required for queried_with", index)
		}
		if a.Expect != nil && a.Sequence != nil {
			return fmt.Errorf("assertions[%d]: expect and sequence are mutually exclusive", index)
		}
	case AssertLastQueriedWith:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for last_queried_with", index)
		}
		if a.Sequence != nil {
			return fmt.Errorf("assertions[%d]: sequence is not allowed for last_queried_with", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
