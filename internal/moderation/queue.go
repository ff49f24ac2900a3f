// Package moderation holds proposed color names through their
// proposed → approved | rejected lifecycle.
//
// A name is reserved from the moment it is proposed: rejected names are kept
// and cannot be proposed again. Each name resolves at most once.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sipico/palette-api/internal/apperr"
	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/storage"
	"github.com/sipico/palette-api/internal/validation"
)

// Store is the persistence the queue needs.
type Store interface {
	CreateProposedName(ctx context.Context, n *storage.ProposedName) error
	TransitionProposedName(ctx context.Context, id int64, to storage.NameStatus, at time.Time) error
	ListProposedNames(ctx context.Context, status storage.NameStatus) ([]*storage.ProposedName, error)
}

// Proposal is the body of a name submission.
type Proposal struct {
	Name        string `json:"name" validate:"required,max=64,colorname"`
	CSS         string `json:"css" validate:"required,max=128"`
	Contributor string `json:"contributor" validate:"max=64"`
}

// Queue moderates proposed names.
type Queue struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewQueue creates a moderation queue.
func NewQueue(store Store, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{store: store, logger: logger, now: time.Now}
}

// Submit proposes a new color name. The name is trimmed and lowercased
// before validation. A name that exists in any status is a conflict.
func (q *Queue) Submit(ctx context.Context, in Proposal) (*storage.ProposedName, error) {
	in.Name = strings.ToLower(strings.TrimSpace(in.Name))
	in.CSS = strings.TrimSpace(in.CSS)
	in.Contributor = strings.TrimSpace(in.Contributor)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	n := &storage.ProposedName{
		Name:        in.Name,
		CSS:         in.CSS,
		Contributor: in.Contributor,
		CreatedAt:   q.now().UTC(),
	}
	if err := q.store.CreateProposedName(ctx, n); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%w: name %q was already proposed", apperr.ErrConflict, in.Name)
		}
		return nil, fmt.Errorf("failed to submit name: %w", err)
	}

	metrics.RecordModeration("proposed")
	q.logger.Info("color name proposed", "id", n.ID, "name", n.Name)
	return n, nil
}

// Approve moves a proposed name to approved and stamps approvedAt.
// Unknown and already resolved IDs are both not found.
func (q *Queue) Approve(ctx context.Context, id int64) error {
	return q.resolve(ctx, id, storage.NameApproved)
}

// Reject moves a proposed name to rejected. The name stays reserved.
func (q *Queue) Reject(ctx context.Context, id int64) error {
	return q.resolve(ctx, id, storage.NameRejected)
}

func (q *Queue) resolve(ctx context.Context, id int64, to storage.NameStatus) error {
	if err := q.store.TransitionProposedName(ctx, id, to, q.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: no proposed name with id %d", apperr.ErrNotFound, id)
		}
		return fmt.Errorf("failed to %s name: %w", verb(to), err)
	}

	metrics.RecordModeration(string(to))
	q.logger.Info("color name resolved", "id", id, "status", to)
	return nil
}

// ListApproved returns approved names sorted by name.
func (q *Queue) ListApproved(ctx context.Context) ([]*storage.ProposedName, error) {
	return q.ListByStatus(ctx, storage.NameApproved)
}

// ListByStatus returns names in one status sorted by name.
func (q *Queue) ListByStatus(ctx context.Context, status storage.NameStatus) ([]*storage.ProposedName, error) {
	switch status {
	case storage.NameProposed, storage.NameApproved, storage.NameRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, status)
	}

	names, err := q.store.ListProposedNames(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s names: %w", status, err)
	}
	return names, nil
}

func verb(to storage.NameStatus) string {
	if to == storage.NameApproved {
		return "approve"
	}
	return "reject"
}
