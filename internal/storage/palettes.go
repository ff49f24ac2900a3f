package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const paletteColumns = "slug, name, colors, vote_count, status, owner_token, created_at, updated_at"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreatePalette inserts a palette. VoteCount on p is ignored; new palettes start at zero.
// Returns ErrDuplicate if the slug is taken.
func (s *SQLiteStorage) CreatePalette(ctx context.Context, p *Palette) error {
	colorsJSON, err := json.Marshal(p.Colors)
	if err != nil {
		return fmt.Errorf("failed to marshal colors: %w", err)
	}

	var owner sql.NullString
	if so, ok := p.Owner.(SessionOwner); ok {
		owner = sql.NullString{String: so.Token, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO palettes ("+paletteColumns+") VALUES (?, ?, ?, 0, ?, ?, ?, ?)",
		p.Slug, p.Name, string(colorsJSON), string(p.Status), owner,
		toNanos(p.CreatedAt), toNanos(p.UpdatedAt))
	if err := classify(err); err != nil {
		if err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create palette: %w", err)
	}

	p.VoteCount = 0
	return nil
}

// GetPalette retrieves a palette by slug.
// Returns ErrNotFound if the slug doesn't exist.
func (s *SQLiteStorage) GetPalette(ctx context.Context, slug string) (*Palette, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+paletteColumns+" FROM palettes WHERE slug = ?", slug)
	p, err := scanPalette(row)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get palette: %w", err)
	}
	return p, nil
}

// ListPalettes returns palettes newest first.
// Returns empty slice if there are none.
func (s *SQLiteStorage) ListPalettes(ctx context.Context, limit, offset int) ([]*Palette, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paletteColumns+" FROM palettes ORDER BY created_at DESC, slug ASC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query palettes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	palettes := make([]*Palette, 0)
	for rows.Next() {
		p, err := scanPalette(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan palette row: %w", err)
		}
		palettes = append(palettes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating palettes: %w", err)
	}
	return palettes, nil
}

// UpdatePaletteDetails replaces a palette's name and colors and returns the
// stored result. A nil colors slice leaves the colors unchanged.
// Returns ErrNotFound if the slug doesn't exist.
func (s *SQLiteStorage) UpdatePaletteDetails(ctx context.Context, slug, name string, colors []Color, at time.Time) (*Palette, error) {
	var row *sql.Row
	if colors == nil {
		row = s.db.QueryRowContext(ctx,
			"UPDATE palettes SET name = ?, updated_at = ? WHERE slug = ? RETURNING "+paletteColumns,
			name, toNanos(at), slug)
	} else {
		colorsJSON, err := json.Marshal(colors)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal colors: %w", err)
		}
		row = s.db.QueryRowContext(ctx,
			"UPDATE palettes SET name = ?, colors = ?, updated_at = ? WHERE slug = ? RETURNING "+paletteColumns,
			name, string(colorsJSON), toNanos(at), slug)
	}

	p, err := scanPalette(row)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update palette: %w", err)
	}
	return p, nil
}

// TogglePaletteStatus flips a palette between published and featured in a
// single statement and returns the status it now has.
// Returns ErrNotFound if the slug doesn't exist.
func (s *SQLiteStorage) TogglePaletteStatus(ctx context.Context, slug string, at time.Time) (PaletteStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `
		UPDATE palettes
		SET status = CASE status WHEN 'featured' THEN 'published' ELSE 'featured' END,
			updated_at = ?
		WHERE slug = ?
		RETURNING status`,
		toNanos(at), slug).Scan(&status)
	if err := classify(err); err != nil {
		if err == ErrNotFound {
			return "", err
		}
		return "", fmt.Errorf("failed to toggle palette status: %w", err)
	}
	return PaletteStatus(status), nil
}

// DeletePalette removes a palette. Its votes are not touched here; see
// DeleteVotesForPalette and DeleteOrphanVotes.
// Returns ErrNotFound if the slug doesn't exist.
func (s *SQLiteStorage) DeletePalette(ctx context.Context, slug string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM palettes WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("failed to delete palette: %w", err)
	}
	return requireRow(result)
}

func scanPalette(row rowScanner) (*Palette, error) {
	var (
		p                Palette
		colorsJSON       string
		status           string
		owner            sql.NullString
		created, updated int64
	)
	if err := row.Scan(&p.Slug, &p.Name, &colorsJSON, &p.VoteCount, &status, &owner, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(colorsJSON), &p.Colors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal colors: %w", err)
	}

	p.Status = PaletteStatus(status)
	if owner.Valid {
		p.Owner = SessionOwner{Token: owner.String}
	} else {
		p.Owner = AnonymousOwner{}
	}
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return &p, nil
}

// requireRow turns a zero-row write into ErrNotFound.
func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
