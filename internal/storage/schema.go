package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
//
// Timestamps are stored as INTEGER unix nanoseconds so range comparisons in
// the retention sweep are numeric.
func InitSchema(db *sql.DB) error {
	ddlStatements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			ip_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_seen_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen_at)`,

		// owner_token is NULL for palettes published through the legacy path
		`CREATE TABLE IF NOT EXISTS palettes (
			slug TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			colors TEXT NOT NULL,
			vote_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'published' CHECK (status IN ('published', 'featured')),
			owner_token TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_palettes_created ON palettes(created_at)`,

		// No foreign keys: expiring a session must not erase its votes, and
		// orphaned votes of deleted palettes are reclaimed by the sweep.
		`CREATE TABLE IF NOT EXISTS votes (
			session_token TEXT NOT NULL,
			palette_slug TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (session_token, palette_slug)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_votes_palette ON votes(palette_slug)`,

		`CREATE TABLE IF NOT EXISTS proposed_names (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			css TEXT NOT NULL,
			contributor TEXT,
			status TEXT NOT NULL DEFAULT 'proposed' CHECK (status IN ('proposed', 'approved', 'rejected')),
			created_at INTEGER NOT NULL,
			approved_at INTEGER
		)`,

		`CREATE INDEX IF NOT EXISTS idx_proposed_names_status ON proposed_names(status)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}
