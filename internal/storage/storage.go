// Package storage provides SQLite persistence for sessions, palettes, votes
// and proposed color names.
//
// Uniqueness is enforced by the schema (PRIMARY KEY and UNIQUE constraints)
// and surfaced as ErrDuplicate. Callers that need to know whether a record
// already exists must derive it from the outcome of a constrained write, not
// from a prior read.
package storage

import (
	"context"
	"time"
)

// SessionStore persists anonymous sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	TouchSession(ctx context.Context, token string, at time.Time) (bool, error)
}

// PaletteStore persists palettes.
type PaletteStore interface {
	CreatePalette(ctx context.Context, p *Palette) error
	GetPalette(ctx context.Context, slug string) (*Palette, error)
	ListPalettes(ctx context.Context, limit, offset int) ([]*Palette, error)
	UpdatePaletteDetails(ctx context.Context, slug, name string, colors []Color, at time.Time) (*Palette, error)
	TogglePaletteStatus(ctx context.Context, slug string, at time.Time) (PaletteStatus, error)
	DeletePalette(ctx context.Context, slug string) error
}

// VoteStore persists vote facts and the cached per-palette counter.
type VoteStore interface {
	DeleteVote(ctx context.Context, token, slug string) (bool, error)
	InsertVote(ctx context.Context, token, slug string, at time.Time) error
	SyncVoteCount(ctx context.Context, slug string, at time.Time) (int, error)
	GetVoteCount(ctx context.Context, slug string) (int, error)
	DeleteVotesForPalette(ctx context.Context, slug string) (int64, error)
}

// NameStore persists proposed color names.
type NameStore interface {
	CreateProposedName(ctx context.Context, n *ProposedName) error
	GetProposedName(ctx context.Context, id int64) (*ProposedName, error)
	TransitionProposedName(ctx context.Context, id int64, to NameStatus, at time.Time) error
	ListProposedNames(ctx context.Context, status NameStatus) ([]*ProposedName, error)
}

// MaintenanceStore holds the bulk deletes used by the retention sweep.
type MaintenanceStore interface {
	DeleteSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOrphanVotes(ctx context.Context, createdBefore time.Time) (int64, error)
	ReconcileVoteCounts(ctx context.Context, at time.Time) (int64, error)
}

// Storage is the full persistence surface used by the HTTP layer.
type Storage interface {
	SessionStore
	PaletteStore
	VoteStore
	NameStore
	MaintenanceStore

	Ping(ctx context.Context) error
	Close() error
}
