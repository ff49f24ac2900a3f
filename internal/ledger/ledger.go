// Package ledger toggles votes and keeps each palette's cached vote count
// equal to its number of vote records.
//
// A toggle is two storage steps with no transaction around them. The vote
// row's (session, palette) primary key decides every race: whichever request
// inserts the row has voted, and a losing insert reports "already voted"
// without touching the counter. The counter itself is recomputed from the
// vote rows rather than incremented, so a skipped or failed adjustment is
// repaired by the next toggle of the same palette, or by the retention sweep.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sipico/palette-api/internal/apperr"
	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/storage"
)

// Store is the persistence the ledger needs.
type Store interface {
	DeleteVote(ctx context.Context, token, slug string) (bool, error)
	InsertVote(ctx context.Context, token, slug string, at time.Time) error
	SyncVoteCount(ctx context.Context, slug string, at time.Time) (int, error)
	GetVoteCount(ctx context.Context, slug string) (int, error)
}

// Result is the outcome of a toggle.
type Result struct {
	Voted     bool `json:"voted"`
	VoteCount int  `json:"voteCount"`
}

// Ledger toggles votes.
type Ledger struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a ledger.
func New(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// Toggle flips token's vote on slug. Calling it twice in a row votes then
// unvotes; concurrent identical calls produce at most one insert.
//
// Returns an error wrapping apperr.ErrAuthentication for an empty token and
// apperr.ErrNotFound for an unknown palette.
func (l *Ledger) Toggle(ctx context.Context, token, slug string) (Result, error) {
	if token == "" {
		return Result{}, fmt.Errorf("%w: voting requires a session", apperr.ErrAuthentication)
	}

	if _, err := l.store.GetVoteCount(ctx, slug); err != nil {
		return Result{}, notFoundOr(err, slug, "failed to look up palette")
	}

	deleted, err := l.store.DeleteVote(ctx, token, slug)
	if err != nil {
		return Result{}, fmt.Errorf("failed to remove vote: %w", err)
	}
	if deleted {
		count, err := l.adjust(ctx, slug)
		if err != nil {
			return Result{}, err
		}
		metrics.RecordVoteToggle("unvoted")
		return Result{Voted: false, VoteCount: count}, nil
	}

	err = l.store.InsertVote(ctx, token, slug, l.now().UTC())
	switch {
	case err == nil:
		count, err := l.adjust(ctx, slug)
		if err != nil {
			return Result{}, err
		}
		metrics.RecordVoteToggle("voted")
		return Result{Voted: true, VoteCount: count}, nil

	case errors.Is(err, storage.ErrDuplicate):
		// A concurrent request from the same session inserted first. That
		// request owns the counter adjustment.
		count, err := l.store.GetVoteCount(ctx, slug)
		if err != nil {
			return Result{}, notFoundOr(err, slug, "failed to read vote count")
		}
		metrics.RecordVoteToggle("race")
		l.logger.Debug("vote insert lost race", "slug", slug)
		return Result{Voted: true, VoteCount: count}, nil

	default:
		return Result{}, fmt.Errorf("failed to record vote: %w", err)
	}
}

// adjust sets the cached counter from the vote rows. On failure the vote
// change has already happened and the counter lags until the next
// adjustment or sweep.
func (l *Ledger) adjust(ctx context.Context, slug string) (int, error) {
	count, err := l.store.SyncVoteCount(ctx, slug, l.now().UTC())
	if err != nil {
		l.logger.Warn("vote count adjustment failed; counter will be reconciled later",
			"slug", slug, "error", err)
		return 0, notFoundOr(err, slug, "failed to update vote count")
	}
	return count, nil
}

func notFoundOr(err error, slug, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: palette %q", apperr.ErrNotFound, slug)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
