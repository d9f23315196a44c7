package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Session identifies one capture session.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionSummary is a session with its call counts.
type SessionSummary struct {
	Session
	Calls   int            `json:"calls"`
	Methods map[string]int `json:"methods"`
}

// CreateSession starts a new, empty session.
func (s *Store) CreateSession(ctx context.Context, name string) (Session, error) {
	if name == "" {
		return Session{}, fmt.Errorf("create session: name is required")
	}

	sess := Session{ID: s.ids.Generate(), Name: name}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name) VALUES (?, ?)
	`, sess.ID, sess.Name)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// ReadSession retrieves a session by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Name)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Sessions lists every session with its call counts, ordered by ID.
//
// Returns an empty slice (not nil) when there are no sessions.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, c.method, COUNT(c.seq)
		FROM sessions s
		LEFT JOIN calls c ON c.session_id = s.id
		GROUP BY s.id, c.method
		ORDER BY s.id COLLATE BINARY ASC, c.method COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var (
			id, name string
			method   sql.NullString
			count    int
		)
		if err := rows.Scan(&id, &name, &method, &count); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, SessionSummary{
				Session: Session{ID: id, Name: name},
				Methods: map[string]int{},
			})
		}
		cur := &out[len(out)-1]
		cur.Calls += count
		if method.Valid {
			cur.Methods[method.String] += count
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
