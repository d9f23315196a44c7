package scenario

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares its text report against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
//
// Returns error if the scenario cannot be executed. A report that differs
// from the golden file fails the test via goldie.
func RunWithGolden(t *testing.T, s *Scenario, opts ...Option) error {
	t.Helper()

	result, err := Run(context.Background(), s, opts...)
	if err != nil {
		return err
	}
	AssertGolden(t, s.Name, result)
	return nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Text()))
}
