package storage

import (
	"context"
	"fmt"
	"time"
)

// DeleteVote removes the vote keyed by (token, slug).
// Reports whether a row was removed.
func (s *SQLiteStorage) DeleteVote(ctx context.Context, token, slug string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM votes WHERE session_token = ? AND palette_slug = ?",
		token, slug)
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// InsertVote records a vote.
// Returns ErrDuplicate if the session already voted for the palette.
func (s *SQLiteStorage) InsertVote(ctx context.Context, token, slug string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO votes (session_token, palette_slug, created_at) VALUES (?, ?, ?)",
		token, slug, toNanos(at))
	if err := classify(err); err != nil {
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// SyncVoteCount sets the palette's cached counter to the number of live vote
// rows and returns it, in a single statement.
// Returns ErrNotFound if the palette doesn't exist.
func (s *SQLiteStorage) SyncVoteCount(ctx context.Context, slug string, at time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		UPDATE palettes
		SET vote_count = (SELECT COUNT(*) FROM votes WHERE palette_slug = palettes.slug),
			updated_at = ?
		WHERE slug = ?
		RETURNING vote_count`,
		toNanos(at), slug).Scan(&count)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return 0, err
		}
		return 0, fmt.Errorf("failed to sync vote count: %w", err)
	}
	return count, nil
}

// GetVoteCount reads the palette's cached counter.
// Returns ErrNotFound if the palette doesn't exist.
func (s *SQLiteStorage) GetVoteCount(ctx context.Context, slug string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT vote_count FROM palettes WHERE slug = ?", slug).Scan(&count)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get vote count: %w", err)
	}
	return count, nil
}

// CountVotes counts the live vote rows for a palette.
func (s *SQLiteStorage) CountVotes(ctx context.Context, slug string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE palette_slug = ?", slug).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// DeleteVotesForPalette removes every vote for a palette.
func (s *SQLiteStorage) DeleteVotesForPalette(ctx context.Context, slug string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM votes WHERE palette_slug = ?", slug)
	if err != nil {
		return 0, fmt.Errorf("failed to delete palette votes: %w", err)
	}
	return result.RowsAffected()
}

// DeleteOrphanVotes removes votes whose palette no longer exists. Votes
// created after createdBefore are left alone, so a palette and vote created
// while a sweep is running are never reclaimed by that sweep.
func (s *SQLiteStorage) DeleteOrphanVotes(ctx context.Context, createdBefore time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM votes
		WHERE created_at <= ?
		AND palette_slug NOT IN (SELECT slug FROM palettes)`,
		toNanos(createdBefore))
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan votes: %w", err)
	}
	return result.RowsAffected()
}

// ReconcileVoteCounts rewrites the cached counter of every palette whose
// counter disagrees with its live vote rows. Returns the number of palettes fixed.
func (s *SQLiteStorage) ReconcileVoteCounts(ctx context.Context, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE palettes
		SET vote_count = (SELECT COUNT(*) FROM votes WHERE palette_slug = palettes.slug),
			updated_at = ?
		WHERE vote_count != (SELECT COUNT(*) FROM votes WHERE palette_slug = palettes.slug)`,
		toNanos(at))
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile vote counts: %w", err)
	}
	return result.RowsAffected()
}
