package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querymatch/internal/diff"
	"github.com/roach88/querymatch/internal/scenario"
	"github.com/roach88/querymatch/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter   string // fixture filter (glob on file name)
	Database string // capture store for session fixtures
	Color    bool   // colored diffs in text output
	Update   bool   // regenerate golden files
}

// ScenarioResult is the per-fixture outcome of a check.
type ScenarioResult struct {
	Name    string            `json:"name"`
	File    string            `json:"file"`
	Pass    bool              `json:"pass"`
	Reports []scenario.Report `json:"reports,omitempty"`
	Errors  []string          `json:"errors,omitempty"`
}

// CheckResult holds the overall check outcome.
type CheckResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <scenarios-dir>",
		Short: "Run assertion fixtures",
		Long: `Run every .yaml, .yml and .cue fixture in a directory.

Each fixture records its calls (or replays a stored session, see --db)
and evaluates its assertions. When <scenarios-dir>/golden/<name>.golden
exists, the text report must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreadable database, etc.)

Examples:
  querymatch check ./testdata
  querymatch check ./testdata --filter "users_*"
  querymatch check ./testdata --db ./capture.db
  querymatch check ./testdata --update
  querymatch check ./testdata --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter fixtures by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.Database, "db", "", "capture store for session fixtures")
	cmd.Flags().BoolVar(&opts.Color, "color", false, "colored diffs in text output")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := scenario.Find(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	formatter.VerboseLog("Found %d fixture(s) in %s", len(files), dir)

	runOpts := []scenario.Option{scenario.WithLogger(logger)}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		runOpts = append(runOpts, scenario.WithStore(st))
	}

	result := CheckResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, file := range files {
		res := checkFile(ctx, opts, dir, file, runOpts, cmd)
		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.IsJSON() {
		return outputCheckJSON(formatter, result)
	}
	return outputCheckText(cmd, result)
}

// checkFile loads, runs and golden-compares one fixture. Problems are
// reported in the result, never returned, so one bad fixture does not stop
// the rest.
func checkFile(ctx context.Context, opts *CheckOptions, dir, file string, runOpts []scenario.Option, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"
	base := filepath.Base(file)

	fail := func(name string, errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, File: base, Errors: errs}
	}

	s, err := scenario.Load(file)
	if err != nil {
		return fail(base, fmt.Sprintf("load error: %v", err))
	}

	// Golden files and JSON output always carry plain messages.
	result, err := scenario.Run(ctx, s, append(runOpts, scenario.WithStyles(diff.Plain()))...)
	if err != nil {
		return fail(s.Name, fmt.Sprintf("execution error: %v", err))
	}

	goldenPath := filepath.Join(dir, "golden", s.Name+".golden")
	if opts.Update {
		if err := writeGolden(goldenPath, result); err != nil {
			return fail(s.Name, fmt.Sprintf("golden update error: %v", err))
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		}
		return ScenarioResult{Name: s.Name, File: base, Pass: true, Reports: result.Reports}
	}

	var errs []string
	if match, err := matchesGolden(goldenPath, result); err != nil {
		errs = append(errs, fmt.Sprintf("golden comparison error: %v", err))
	} else if !match {
		errs = append(errs, "report does not match golden file (run with --update to regenerate)")
	}

	out := ScenarioResult{
		Name:    s.Name,
		File:    base,
		Pass:    result.Pass && len(errs) == 0,
		Reports: result.Reports,
		Errors:  errs,
	}
	if !text {
		return out
	}

	if out.Pass {
		fmt.Fprintf(w, "✓ %s\n", s.Name)
		return out
	}
	fmt.Fprintf(w, "✗ %s\n", s.Name)
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e)
	}
	shown := result
	if opts.Color && !result.Pass {
		if colored, err := scenario.Run(ctx, s, append(runOpts, scenario.WithStyles(diff.NewStyles(true)))...); err == nil {
			shown = colored
		}
	}
	for _, rep := range shown.Failures() {
		fmt.Fprintf(w, "  [%d] %s\n", rep.Index, rep.Label())
		fmt.Fprintln(w, indent(rep.Message, "    "))
	}
	return out
}

// matchesGolden reports whether the golden file matches. A missing golden
// file is not a mismatch.
func matchesGolden(path string, result *scenario.Result) (bool, error) {
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(want, []byte(result.Text())), nil
}

func writeGolden(path string, result *scenario.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(result.Text()), 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

func outputCheckJSON(f *OutputFormatter, result CheckResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}

	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := f.Envelope(CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: ErrCodeCheckFailed, Message: msg},
	}); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

func outputCheckText(cmd *cobra.Command, result CheckResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
