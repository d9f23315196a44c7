package scenario

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/querymatch/internal/builder"
	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/dialect"
	"github.com/roach88/querymatch/internal/diff"
	"github.com/roach88/querymatch/internal/matcher"
	"github.com/roach88/querymatch/internal/spy"
	"github.com/roach88/querymatch/internal/store"
)

// Result holds the outcome of running a scenario.
type Result struct {
	Name    string   `json:"name"`
	Pass    bool     `json:"pass"`
	Calls   int      `json:"calls"`
	Reports []Report `json:"reports"`
}

// Report is the outcome of one assertion.
type Report struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Not   bool   `json:"not,omitempty"`
	Pass  bool   `json:"pass"`

	// Message is the matcher's explanation. Only set for failed assertions.
	Message string `json:"message,omitempty"`
}

// Label names the assertion as written, e.g. "not queried_with".
func (r Report) Label() string {
	if r.Not {
		return "not " + r.Type
	}
	return r.Type
}

// Failures returns the failed reports.
func (r *Result) Failures() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if !rep.Pass {
			out = append(out, rep)
		}
	}
	return out
}

// Text renders the result for humans and golden files.
func (r *Result) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.Name)
	fmt.Fprintf(&b, "calls: %d\n", r.Calls)
	fmt.Fprintf(&b, "result: %s\n", verdict(r.Pass))
	for _, rep := range r.Reports {
		fmt.Fprintf(&b, "\n[%d] %s: %s\n", rep.Index, rep.Label(), verdict(rep.Pass))
		if rep.Message != "" {
			b.WriteString(strings.TrimRight(rep.Message, "\n"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func verdict(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	store  *store.Store
	logger *slog.Logger
	styles diff.Styles
}

// WithStore supplies the store that session scenarios replay from.
func WithStore(s *store.Store) Option {
	return func(c *runConfig) {
		c.store = s
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStyles sets the diff emphasis of failure messages. Defaults to plain.
func WithStyles(st diff.Styles) Option {
	return func(c *runConfig) {
		c.styles = st
	}
}

// Run records the scenario's calls and evaluates its assertions.
//
// A failed assertion is not an error: it is reported in Result. Errors are
// returned only when the scenario cannot be executed at all.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		styles: diff.Plain(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	adapter, err := dialect.Lookup(s.Dialect)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	rec, err := record(ctx, s, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	mopts := []matcher.Option{
		matcher.WithDialect(adapter),
		matcher.WithStyles(cfg.styles),
		matcher.WithLogger(cfg.logger),
	}

	result := &Result{
		Name:    s.Name,
		Pass:    true,
		Calls:   rec.Len(),
		Reports: make([]Report, 0, len(s.Assertions)),
	}
	for i, a := range s.Assertions {
		res, err := evaluate(rec, a, mopts)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: assertions[%d]: %w", s.Name, i, err)
		}

		rep := Report{Index: i, Type: a.Type, Not: a.Not, Pass: res.Pass != a.Not}
		if !rep.Pass {
			rep.Message = res.Message()
			result.Pass = false
		}
		result.Reports = append(result.Reports, rep)
	}

	cfg.logger.Info("scenario evaluated",
		"scenario", s.Name,
		"calls", result.Calls,
		"assertions", len(result.Reports),
		"pass", result.Pass)

	return result, nil
}

// record builds the call history, either from inline calls or a stored
// session.
func record(ctx context.Context, s *Scenario, cfg *runConfig) (*spy.Spy, error) {
	if s.Session != "" {
		if cfg.store == nil {
			return nil, fmt.Errorf("session %q requires a store", s.Session)
		}
		if _, err := cfg.store.ReadSession(ctx, s.Session); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("session %q not found", s.Session)
			}
			return nil, err
		}
		calls, err := cfg.store.ReadCalls(ctx, s.Session)
		if err != nil {
			return nil, err
		}
		cfg.logger.Debug("session replayed", "session", s.Session, "calls", len(calls))
		return spy.Replay(calls), nil
	}

	rec := spy.New()
	for _, c := range s.Calls {
		q := builder.Raw(c.SQL, c.Bindings...)
		if c.Method != "" {
			q.Verb = c.Method
		}
		rec.Record(nil, q)
	}
	return rec, nil
}

func evaluate(rec *spy.Spy, a Assertion, opts []matcher.Option) (matcher.Result, error) {
	switch a.Type {
	case AssertLastQueriedWith:
		return matcher.LastQueriedWith(rec, a.Expect.Compare(), opts...)
	case AssertQueriedWith:
		if a.Sequence != nil {
			seq := make(compare.Sequence, len(a.Sequence))
			for i, e := range a.Sequence {
				seq[i] = e.Compare()
			}
			return matcher.QueriedWith(rec, seq, opts...)
		}
		return matcher.QueriedWith(rec, a.Expect.Compare(), opts...)
	default:
		return matcher.Result{}, fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
