package storage

import (
	"context"
	"fmt"
	"time"
)

// CreateSession inserts a new session.
// Returns ErrDuplicate if the token already exists.
func (s *SQLiteStorage) CreateSession(ctx context.Context, sess *Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, ip_hash, created_at, last_seen_at) VALUES (?, ?, ?, ?)",
		sess.Token, sess.IPHash, toNanos(sess.CreatedAt), toNanos(sess.LastSeenAt))
	if err := classify(err); err != nil {
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token.
// Returns ErrNotFound if the token is unknown.
func (s *SQLiteStorage) GetSession(ctx context.Context, token string) (*Session, error) {
	var (
		sess              Session
		created, lastSeen int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, ip_hash, created_at, last_seen_at FROM sessions WHERE token = ?",
		token).Scan(&sess.Token, &sess.IPHash, &created, &lastSeen)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	sess.CreatedAt = fromNanos(created)
	sess.LastSeenAt = fromNanos(lastSeen)
	return &sess, nil
}

// TouchSession sets last_seen_at for an existing session.
// Reports false, with no error, when the token is unknown.
func (s *SQLiteStorage) TouchSession(ctx context.Context, token string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET last_seen_at = ? WHERE token = ?",
		toNanos(at), token)
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteSessionsIdleSince removes sessions last seen strictly before cutoff.
func (s *SQLiteStorage) DeleteSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_seen_at < ?",
		toNanos(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	return result.RowsAffected()
}
