package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const nameColumns = "id, name, css, contributor, status, created_at, approved_at"

// CreateProposedName inserts a proposed name with status "proposed" and sets n.ID.
// Returns ErrDuplicate if the name exists in any status.
func (s *SQLiteStorage) CreateProposedName(ctx context.Context, n *ProposedName) error {
	var contributor sql.NullString
	if n.Contributor != "" {
		contributor = sql.NullString{String: n.Contributor, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO proposed_names (name, css, contributor, status, created_at) VALUES (?, ?, ?, ?, ?)",
		n.Name, n.CSS, contributor, string(NameProposed), toNanos(n.CreatedAt))
	if err := classify(err); err != nil {
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create proposed name: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}

	n.ID = id
	n.Status = NameProposed
	n.ApprovedAt = nil
	return nil
}

// GetProposedName retrieves a proposed name by ID.
// Returns ErrNotFound if the ID doesn't exist.
func (s *SQLiteStorage) GetProposedName(ctx context.Context, id int64) (*ProposedName, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+nameColumns+" FROM proposed_names WHERE id = ?", id)
	n, err := scanProposedName(row)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get proposed name: %w", err)
	}
	return n, nil
}

// TransitionProposedName moves a name out of "proposed". The update only
// matches a row whose status is still "proposed", so a name resolves at most
// once. approved_at is set only when moving to "approved".
// Returns ErrNotFound if the ID doesn't exist or is already resolved.
func (s *SQLiteStorage) TransitionProposedName(ctx context.Context, id int64, to NameStatus, at time.Time) error {
	var approvedAt sql.NullInt64
	if to == NameApproved {
		approvedAt = sql.NullInt64{Int64: toNanos(at), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE proposed_names SET status = ?, approved_at = ? WHERE id = ? AND status = ?",
		string(to), approvedAt, id, string(NameProposed))
	if err != nil {
		return fmt.Errorf("failed to transition proposed name: %w", err)
	}
	return requireRow(result)
}

// ListProposedNames returns names in the given status ordered by name.
// Returns empty slice if there are none.
func (s *SQLiteStorage) ListProposedNames(ctx context.Context, status NameStatus) ([]*ProposedName, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+nameColumns+" FROM proposed_names WHERE status = ? ORDER BY name ASC",
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query proposed names: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	names := make([]*ProposedName, 0)
	for rows.Next() {
		n, err := scanProposedName(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposed name row: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposed names: %w", err)
	}
	return names, nil
}

func scanProposedName(row rowScanner) (*ProposedName, error) {
	var (
		n           ProposedName
		contributor sql.NullString
		status      string
		created     int64
		approvedAt  sql.NullInt64
	)
	if err := row.Scan(&n.ID, &n.Name, &n.CSS, &contributor, &status, &created, &approvedAt); err != nil {
		return nil, err
	}

	n.Contributor = contributor.String
	n.Status = NameStatus(status)
	n.CreatedAt = fromNanos(created)
	if approvedAt.Valid {
		t := fromNanos(approvedAt.Int64)
		n.ApprovedAt = &t
	}
	return &n, nil
}
