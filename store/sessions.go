package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmoreno/clauseforge/chat"
)

// SessionStore adapts the SQLite database to chat.Store, persisting
// session histories across process restarts.
type SessionStore struct {
	s *Store
}

// Sessions returns a chat.Store view of the database.
func (s *Store) Sessions() *SessionStore {
	return &SessionStore{s: s}
}

var _ chat.Store = (*SessionStore)(nil)

func (ss *SessionStore) Create(ctx context.Context, sessionID string) error {
	_, err := ss.s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (id) VALUES (?)", sessionID)
	return err
}

func (ss *SessionStore) Get(ctx context.Context, sessionID string) ([]chat.Entry, error) {
	var exists int
	err := ss.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, chat.ErrNotFound
	}

	rows, err := ss.s.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []chat.Entry{}
	for rows.Next() {
		var e chat.Entry
		var createdAt string
		if err := rows.Scan(&e.Role, &e.Content, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (ss *SessionStore) Append(ctx context.Context, sessionID string, entries ...chat.Entry) error {
	return ss.s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO sessions (id) VALUES (?)", sessionID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, sessionID, e.Role, e.Content,
				e.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (ss *SessionStore) Delete(ctx context.Context, sessionID string) error {
	res, err := ss.s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return chat.ErrNotFound
	}
	return nil
}
