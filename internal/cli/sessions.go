package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querymatch/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// SessionInfo is one listed session.
type SessionInfo struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Calls   int            `json:"calls"`
	Methods map[string]int `json:"methods,omitempty"`
}

// SessionsResult holds the sessions listing.
type SessionsResult struct {
	Sessions []SessionInfo `json:"sessions"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded capture sessions",
		Long: `List the capture sessions stored in a database, with the number of
calls each recorded and a breakdown by statement method.

Session IDs can be referenced from fixtures with "session: <id>".

Examples:
  querymatch sessions --db ./capture.db
  querymatch sessions --db ./capture.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite capture database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSessions(ctx context.Context, opts *SessionsOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	summaries, err := st.Sessions(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, "failed to list sessions", err.Error())
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	formatter.VerboseLog("Read %d session(s) from %s", len(summaries), opts.Database)

	result := SessionsResult{Sessions: make([]SessionInfo, 0, len(summaries))}
	for _, s := range summaries {
		result.Sessions = append(result.Sessions, SessionInfo{
			ID:      s.ID,
			Name:    s.Name,
			Calls:   s.Calls,
			Methods: s.Methods,
		})
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}
	for _, s := range result.Sessions {
		fmt.Fprintf(w, "%s  %s  %d call(s)", s.ID, s.Name, s.Calls)
		if len(s.Methods) > 0 {
			fmt.Fprintf(w, "  [%s]", formatMethods(s.Methods))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// formatMethods renders method counts as "insert=1 select=2".
func formatMethods(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}
