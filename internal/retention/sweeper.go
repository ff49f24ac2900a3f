// Package retention removes idle sessions and orphaned votes, and repairs
// drifted vote counters.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sipico/palette-api/internal/metrics"
)

// DefaultIdleTTL is how long a session may go unseen before it is removed.
const DefaultIdleTTL = 30 * 24 * time.Hour

// Store holds the bulk deletes the sweep runs.
type Store interface {
	DeleteSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOrphanVotes(ctx context.Context, createdBefore time.Time) (int64, error)
	ReconcileVoteCounts(ctx context.Context, at time.Time) (int64, error)
}

// Result counts what one sweep changed.
type Result struct {
	SessionsRemoved    int64 `json:"sessionsRemoved"`
	VotesRemoved       int64 `json:"votesRemoved"`
	CountersReconciled int64 `json:"countersReconciled"`
}

// Sweeper runs retention passes. Sweeps hold no locks and may overlap with
// each other and with request traffic.
type Sweeper struct {
	store   Store
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper creates a sweeper. A non-positive idleTTL means DefaultIdleTTL.
func NewSweeper(store Store, idleTTL time.Duration, logger *slog.Logger) *Sweeper {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, idleTTL: idleTTL, logger: logger, now: time.Now}
}

// Sweep runs one pass. Sessions last seen strictly before now-idleTTL are
// removed. Votes for palettes that no longer exist are removed only if they
// were created no later than the sweep start, so a vote cast during the
// sweep is never touched. Counters that differ from their live vote count
// are then reset.
//
// Steps run in order and stop at the first failure; the partial result is
// returned with the error.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	start := s.now().UTC()
	cutoff := start.Add(-s.idleTTL)
	var res Result

	n, err := s.store.DeleteSessionsIdleSince(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("failed to remove idle sessions: %w", err)
	}
	res.SessionsRemoved = n
	metrics.RecordSweepRemoved("sessions", n)

	n, err = s.store.DeleteOrphanVotes(ctx, start)
	if err != nil {
		return res, fmt.Errorf("failed to remove orphan votes: %w", err)
	}
	res.VotesRemoved = n
	metrics.RecordSweepRemoved("votes", n)

	n, err = s.store.ReconcileVoteCounts(ctx, start)
	if err != nil {
		return res, fmt.Errorf("failed to reconcile vote counts: %w", err)
	}
	res.CountersReconciled = n
	metrics.RecordSweepRemoved("counters", n)

	s.logger.Info("retention sweep complete",
		"sessions_removed", res.SessionsRemoved,
		"votes_removed", res.VotesRemoved,
		"counters_reconciled", res.CountersReconciled,
		"cutoff", cutoff,
		"duration", time.Since(start))
	return res, nil
}
