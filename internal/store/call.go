package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/querymatch/internal/builder"
	"github.com/roach88/querymatch/internal/descriptor"
	"github.com/roach88/querymatch/internal/spy"
)

// WriteCall appends one recorded call to a session. Only the query handle
// at argument index 1 is persisted; a call without one is stored with NULL
// sql and method.
//
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same seq twice
// is silently ignored.
func (s *Store) WriteCall(ctx context.Context, sessionID string, c spy.Call) error {
	var (
		text, method sql.NullString
		bindings     = "[]"
	)
	if h, ok := c.Arg(1).(descriptor.Handle); ok && h != nil {
		var err error
		bindings, err = marshalBindings(h.Bindings())
		if err != nil {
			return fmt.Errorf("write call: %w", err)
		}
		text = sql.NullString{String: h.SQL(), Valid: true}
		method = sql.NullString{String: h.Method(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls (session_id, seq, sql, bindings, method)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, sessionID, c.Seq, text, bindings, method)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	return nil
}

// ReadCalls returns the calls of a session ordered by seq. Each call is
// rebuilt as Args{nil, builder.Query} (or Args{nil, nil} when no handle was
// recorded), the layout the matchers read.
//
// Returns an empty slice (not nil) if the session has no calls.
func (s *Store) ReadCalls(ctx context.Context, sessionID string) ([]spy.Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, sql, bindings, method
		FROM calls
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []spy.Call{}
	for rows.Next() {
		var (
			seq          int64
			text, method sql.NullString
			raw          string
		)
		if err := rows.Scan(&seq, &text, &raw, &method); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}

		if !text.Valid {
			calls = append(calls, spy.Call{Args: []any{nil, nil}, Seq: seq})
			continue
		}

		bindings, err := unmarshalBindings(raw)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", seq, err)
		}
		calls = append(calls, spy.Call{
			Args: []any{nil, builder.Query{Text: text.String, Args: bindings, Verb: method.String}},
			Seq:  seq,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// Sink returns a spy sink that persists every recorded call into the
// session. Write failures are logged, not returned, since a recorder cannot
// surface them.
func (s *Store) Sink(ctx context.Context, sessionID string, logger *slog.Logger) func(spy.Call) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c spy.Call) {
		if err := s.WriteCall(ctx, sessionID, c); err != nil {
			logger.Error("failed to persist call",
				"session", sessionID,
				"seq", c.Seq,
				"error", err)
			return
		}
		logger.Debug("call persisted",
			"session", sessionID,
			"seq", c.Seq)
	}
}
