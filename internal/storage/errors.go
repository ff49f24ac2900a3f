package storage

import (
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicate is returned when a write violates a PRIMARY KEY or UNIQUE constraint.
	ErrDuplicate = errors.New("resource already exists")

	// ErrNotFound is returned when a resource is not found, or a conditional
	// update matched no row.
	ErrNotFound = errors.New("resource not found")
)

// classify maps driver failures onto the package's sentinel errors.
// It is the only place that inspects SQLite error codes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicate
		}
	}
	return err
}
