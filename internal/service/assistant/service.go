// Package assistant persists conversations for anonymous chat sessions.
package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medchat/internal/models"
)

// Service owns session and message persistence.
type Service struct {
	db *sql.DB
}

// NewService constructs the conversation store.
func NewService(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("db handle required")
	}
	return &Service{db: db}, nil
}

// Ping reports whether the backing database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// EnsureSession returns the session for the given key, creating it when the
// key has not been seen before.
func (s *Service) EnsureSession(ctx context.Context, key string) (*models.Session, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("session key is required")
	}

	var session models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_key, created_at, updated_at FROM sessions WHERE session_key = ?`,
		key,
	).Scan(&session.ID, &session.Key, &session.CreatedAt, &session.UpdatedAt)
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_key, created_at, updated_at) VALUES (?, ?, ?)`,
		key, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &models.Session{ID: id, Key: key, CreatedAt: now, UpdatedAt: now}, nil
}

// History returns the session's messages in insertion order. An empty
// result is valid and means a fresh session.
func (s *Service) History(ctx context.Context, sessionID int64) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage stores a new message and updates the session's updated_at
// timestamp.
func (s *Service) AppendMessage(ctx context.Context, sessionID int64, role models.Role, content string) (*models.Message, error) {
	if sessionID <= 0 {
		return nil, errors.New("invalid session id")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, role, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return &models.Message{ID: id, SessionID: sessionID, Role: role, Content: content, CreatedAt: now}, nil
}

// ClearHistory deletes every message of a session, leaving the session row
// in place so the visitor keeps their key. Either all messages go or none.
func (s *Service) ClearHistory(ctx context.Context, sessionID int64) error {
	if sessionID <= 0 {
		return errors.New("invalid session id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear history: %w", err)
	}
	return nil
}
