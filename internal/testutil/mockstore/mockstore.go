// Package mockstore provides a configurable mock implementation of storage.Storage for testing.
//
// The MockStorage type uses function fields for each method, allowing tests to customize behavior
// as needed while providing sensible defaults for methods that aren't customized.
package mockstore

import (
	"context"
	"sync"
	"time"

	"github.com/sipico/palette-api/internal/storage"
)

// MockStorage is a configurable mock implementation of storage.Storage.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a sensible default value.
// Calls are counted per method name; see Calls.
type MockStorage struct {
	// Sessions
	CreateSessionFunc func(ctx context.Context, sess *storage.Session) error
	GetSessionFunc    func(ctx context.Context, token string) (*storage.Session, error)
	TouchSessionFunc  func(ctx context.Context, token string, at time.Time) (bool, error)

	// Palettes
	CreatePaletteFunc        func(ctx context.Context, p *storage.Palette) error
	GetPaletteFunc           func(ctx context.Context, slug string) (*storage.Palette, error)
	ListPalettesFunc         func(ctx context.Context, limit, offset int) ([]*storage.Palette, error)
	UpdatePaletteDetailsFunc func(ctx context.Context, slug, name string, colors []storage.Color, at time.Time) (*storage.Palette, error)
	TogglePaletteStatusFunc  func(ctx context.Context, slug string, at time.Time) (storage.PaletteStatus, error)
	DeletePaletteFunc        func(ctx context.Context, slug string) error

	// Votes
	DeleteVoteFunc            func(ctx context.Context, token, slug string) (bool, error)
	InsertVoteFunc            func(ctx context.Context, token, slug string, at time.Time) error
	SyncVoteCountFunc         func(ctx context.Context, slug string, at time.Time) (int, error)
	GetVoteCountFunc          func(ctx context.Context, slug string) (int, error)
	DeleteVotesForPaletteFunc func(ctx context.Context, slug string) (int64, error)

	// Proposed names
	CreateProposedNameFunc     func(ctx context.Context, n *storage.ProposedName) error
	GetProposedNameFunc        func(ctx context.Context, id int64) (*storage.ProposedName, error)
	TransitionProposedNameFunc func(ctx context.Context, id int64, to storage.NameStatus, at time.Time) error
	ListProposedNamesFunc      func(ctx context.Context, status storage.NameStatus) ([]*storage.ProposedName, error)

	// Maintenance
	DeleteSessionsIdleSinceFunc func(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOrphanVotesFunc       func(ctx context.Context, createdBefore time.Time) (int64, error)
	ReconcileVoteCountsFunc     func(ctx context.Context, at time.Time) (int64, error)

	// Lifecycle
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error

	mu    sync.Mutex
	calls map[string]int
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockStorage) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// CreateSession stores a session.
func (m *MockStorage) CreateSession(ctx context.Context, sess *storage.Session) error {
	m.record("CreateSession")
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, sess)
	}
	return nil
}

// GetSession retrieves a session by token.
func (m *MockStorage) GetSession(ctx context.Context, token string) (*storage.Session, error) {
	m.record("GetSession")
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, token)
	}
	return nil, storage.ErrNotFound
}

// TouchSession refreshes a session's last-seen time.
func (m *MockStorage) TouchSession(ctx context.Context, token string, at time.Time) (bool, error) {
	m.record("TouchSession")
	if m.TouchSessionFunc != nil {
		return m.TouchSessionFunc(ctx, token, at)
	}
	return false, nil
}

// CreatePalette stores a palette.
func (m *MockStorage) CreatePalette(ctx context.Context, p *storage.Palette) error {
	m.record("CreatePalette")
	if m.CreatePaletteFunc != nil {
		return m.CreatePaletteFunc(ctx, p)
	}
	return nil
}

// GetPalette retrieves a palette by slug.
func (m *MockStorage) GetPalette(ctx context.Context, slug string) (*storage.Palette, error) {
	m.record("GetPalette")
	if m.GetPaletteFunc != nil {
		return m.GetPaletteFunc(ctx, slug)
	}
	return nil, storage.ErrNotFound
}

// ListPalettes lists palettes.
func (m *MockStorage) ListPalettes(ctx context.Context, limit, offset int) ([]*storage.Palette, error) {
	m.record("ListPalettes")
	if m.ListPalettesFunc != nil {
		return m.ListPalettesFunc(ctx, limit, offset)
	}
	return []*storage.Palette{}, nil
}

// UpdatePaletteDetails renames a palette.
func (m *MockStorage) UpdatePaletteDetails(ctx context.Context, slug, name string, colors []storage.Color, at time.Time) (*storage.Palette, error) {
	m.record("UpdatePaletteDetails")
	if m.UpdatePaletteDetailsFunc != nil {
		return m.UpdatePaletteDetailsFunc(ctx, slug, name, colors, at)
	}
	return nil, storage.ErrNotFound
}

// TogglePaletteStatus flips a palette's status.
func (m *MockStorage) TogglePaletteStatus(ctx context.Context, slug string, at time.Time) (storage.PaletteStatus, error) {
	m.record("TogglePaletteStatus")
	if m.TogglePaletteStatusFunc != nil {
		return m.TogglePaletteStatusFunc(ctx, slug, at)
	}
	return "", storage.ErrNotFound
}

// DeletePalette removes a palette.
func (m *MockStorage) DeletePalette(ctx context.Context, slug string) error {
	m.record("DeletePalette")
	if m.DeletePaletteFunc != nil {
		return m.DeletePaletteFunc(ctx, slug)
	}
	return nil
}

// DeleteVote removes a vote.
func (m *MockStorage) DeleteVote(ctx context.Context, token, slug string) (bool, error) {
	m.record("DeleteVote")
	if m.DeleteVoteFunc != nil {
		return m.DeleteVoteFunc(ctx, token, slug)
	}
	return false, nil
}

// InsertVote records a vote.
func (m *MockStorage) InsertVote(ctx context.Context, token, slug string, at time.Time) error {
	m.record("InsertVote")
	if m.InsertVoteFunc != nil {
		return m.InsertVoteFunc(ctx, token, slug, at)
	}
	return nil
}

// SyncVoteCount recomputes a palette's counter.
func (m *MockStorage) SyncVoteCount(ctx context.Context, slug string, at time.Time) (int, error) {
	m.record("SyncVoteCount")
	if m.SyncVoteCountFunc != nil {
		return m.SyncVoteCountFunc(ctx, slug, at)
	}
	return 0, nil
}

// GetVoteCount reads a palette's counter.
func (m *MockStorage) GetVoteCount(ctx context.Context, slug string) (int, error) {
	m.record("GetVoteCount")
	if m.GetVoteCountFunc != nil {
		return m.GetVoteCountFunc(ctx, slug)
	}
	return 0, nil
}

// DeleteVotesForPalette removes every vote of a palette.
func (m *MockStorage) DeleteVotesForPalette(ctx context.Context, slug string) (int64, error) {
	m.record("DeleteVotesForPalette")
	if m.DeleteVotesForPaletteFunc != nil {
		return m.DeleteVotesForPaletteFunc(ctx, slug)
	}
	return 0, nil
}

// CreateProposedName stores a proposed name.
func (m *MockStorage) CreateProposedName(ctx context.Context, n *storage.ProposedName) error {
	m.record("CreateProposedName")
	if m.CreateProposedNameFunc != nil {
		return m.CreateProposedNameFunc(ctx, n)
	}
	n.ID = 1
	n.Status = storage.NameProposed
	return nil
}

// GetProposedName retrieves a proposed name.
func (m *MockStorage) GetProposedName(ctx context.Context, id int64) (*storage.ProposedName, error) {
	m.record("GetProposedName")
	if m.GetProposedNameFunc != nil {
		return m.GetProposedNameFunc(ctx, id)
	}
	return nil, storage.ErrNotFound
}

// TransitionProposedName resolves a proposed name.
func (m *MockStorage) TransitionProposedName(ctx context.Context, id int64, to storage.NameStatus, at time.Time) error {
	m.record("TransitionProposedName")
	if m.TransitionProposedNameFunc != nil {
		return m.TransitionProposedNameFunc(ctx, id, to, at)
	}
	return nil
}

// ListProposedNames lists names in a status.
func (m *MockStorage) ListProposedNames(ctx context.Context, status storage.NameStatus) ([]*storage.ProposedName, error) {
	m.record("ListProposedNames")
	if m.ListProposedNamesFunc != nil {
		return m.ListProposedNamesFunc(ctx, status)
	}
	return []*storage.ProposedName{}, nil
}

// DeleteSessionsIdleSince removes idle sessions.
func (m *MockStorage) DeleteSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	m.record("DeleteSessionsIdleSince")
	if m.DeleteSessionsIdleSinceFunc != nil {
		return m.DeleteSessionsIdleSinceFunc(ctx, cutoff)
	}
	return 0, nil
}

// DeleteOrphanVotes removes votes of deleted palettes.
func (m *MockStorage) DeleteOrphanVotes(ctx context.Context, createdBefore time.Time) (int64, error) {
	m.record("DeleteOrphanVotes")
	if m.DeleteOrphanVotesFunc != nil {
		return m.DeleteOrphanVotesFunc(ctx, createdBefore)
	}
	return 0, nil
}

// ReconcileVoteCounts repairs drifted counters.
func (m *MockStorage) ReconcileVoteCounts(ctx context.Context, at time.Time) (int64, error) {
	m.record("ReconcileVoteCounts")
	if m.ReconcileVoteCountsFunc != nil {
		return m.ReconcileVoteCountsFunc(ctx, at)
	}
	return 0, nil
}

// Ping checks the database connection.
func (m *MockStorage) Ping(ctx context.Context) error {
	m.record("Ping")
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close closes the database connection.
func (m *MockStorage) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
