// Package palette publishes, reads, renames, features and deletes palettes.
package palette

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sipico/palette-api/internal/apperr"
	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/session"
	"github.com/sipico/palette-api/internal/storage"
	"github.com/sipico/palette-api/internal/validation"
)

// Listing bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Store is the persistence the catalog needs.
type Store interface {
	CreatePalette(ctx context.Context, p *storage.Palette) error
	GetPalette(ctx context.Context, slug string) (*storage.Palette, error)
	ListPalettes(ctx context.Context, limit, offset int) ([]*storage.Palette, error)
	UpdatePaletteDetails(ctx context.Context, slug, name string, colors []storage.Color, at time.Time) (*storage.Palette, error)
	TogglePaletteStatus(ctx context.Context, slug string, at time.Time) (storage.PaletteStatus, error)
	DeletePalette(ctx context.Context, slug string) error
	DeleteVotesForPalette(ctx context.Context, slug string) (int64, error)
}

// ColorInput is one color entry of a publish or rename request.
type ColorInput struct {
	Value string `json:"value" validate:"required,max=64"`
	Label string `json:"label" validate:"max=40"`
}

// PublishInput is the body of a publish request. Slug is derived from Name
// when empty.
type PublishInput struct {
	Slug   string       `json:"slug" validate:"omitempty,max=64,slug"`
	Name   string       `json:"name" validate:"required,max=80"`
	Colors []ColorInput `json:"colors" validate:"required,min=1,max=32,dive"`
}

// RenameInput is the body of a rename request. Nil Colors keeps the
// existing colors.
type RenameInput struct {
	Name   string       `json:"name" validate:"required,max=80"`
	Colors []ColorInput `json:"colors" validate:"omitempty,min=1,max=32,dive"`
}

// Catalog implements the palette operations.
type Catalog struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalog creates a catalog.
func NewCatalog(store Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, logger: logger, now: time.Now}
}

// Publish creates a palette owned by the session token.
func (c *Catalog) Publish(ctx context.Context, token string, in PublishInput) (*storage.Palette, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: publishing requires a session", apperr.ErrAuthentication)
	}
	p, err := c.publish(ctx, storage.SessionOwner{Token: token}, in)
	if err != nil {
		return nil, err
	}
	metrics.RecordPalettePublished("session")
	return p, nil
}

// PublishLegacy creates an anonymous palette. Nobody can rename it.
func (c *Catalog) PublishLegacy(ctx context.Context, in PublishInput) (*storage.Palette, error) {
	p, err := c.publish(ctx, storage.AnonymousOwner{}, in)
	if err != nil {
		return nil, err
	}
	metrics.RecordPalettePublished("legacy")
	return p, nil
}

func (c *Catalog) publish(ctx context.Context, owner storage.Owner, in PublishInput) (*storage.Palette, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
		if slug == "" {
			return nil, fmt.Errorf("%w: name must contain a letter or digit to derive a slug", apperr.ErrValidation)
		}
	}

	now := c.now().UTC()
	p := &storage.Palette{
		Slug:      slug,
		Name:      in.Name,
		Colors:    toColors(in.Colors),
		Status:    storage.StatusPublished,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.CreatePalette(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%w: slug %q is taken", apperr.ErrConflict, slug)
		}
		return nil, fmt.Errorf("failed to publish palette: %w", err)
	}

	_, anonymous := owner.(storage.AnonymousOwner)
	c.logger.Info("palette published", "slug", slug, "anonymous", anonymous)
	return p, nil
}

// Get returns one palette.
func (c *Catalog) Get(ctx context.Context, slug string) (*storage.Palette, error) {
	p, err := c.store.GetPalette(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, slug, "failed to get palette")
	}
	return p, nil
}

// List returns palettes newest first. A zero limit means DefaultListLimit.
func (c *Catalog) List(ctx context.Context, limit, offset int) ([]*storage.Palette, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", apperr.ErrValidation, MaxListLimit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", apperr.ErrValidation)
	}

	palettes, err := c.store.ListPalettes(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list palettes: %w", err)
	}
	return palettes, nil
}

// Rename changes a palette's name, and its colors when given. Only the
// owning session may rename; anonymous palettes cannot be renamed.
func (c *Catalog) Rename(ctx context.Context, token, slug string, in RenameInput) (*storage.Palette, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: renaming requires a session", apperr.ErrAuthentication)
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	current, err := c.store.GetPalette(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, slug, "failed to get palette")
	}
	if !session.Owns(token, current) {
		metrics.RecordAuthFailure("not_owner")
		return nil, fmt.Errorf("%w: session does not own palette %q", apperr.ErrAuthorization, slug)
	}

	var colors []storage.Color
	if in.Colors != nil {
		colors = toColors(in.Colors)
	}
	updated, err := c.store.UpdatePaletteDetails(ctx, slug, in.Name, colors, c.now().UTC())
	if err != nil {
		return nil, notFoundOr(err, slug, "failed to rename palette")
	}
	return updated, nil
}

// ToggleFeature flips a palette between published and featured and returns
// the new status. Concurrent toggles each apply in turn.
func (c *Catalog) ToggleFeature(ctx context.Context, slug string) (storage.PaletteStatus, error) {
	next, err := c.store.TogglePaletteStatus(ctx, slug, c.now().UTC())
	if err != nil {
		return "", notFoundOr(err, slug, "failed to toggle palette status")
	}

	c.logger.Info("palette status changed", "slug", slug, "status", next)
	return next, nil
}

// Delete removes a palette and its votes. Votes the cascade misses are
// collected by the retention sweep, so a cascade failure is logged and not
// returned.
func (c *Catalog) Delete(ctx context.Context, slug string) error {
	if err := c.store.DeletePalette(ctx, slug); err != nil {
		return notFoundOr(err, slug, "failed to delete palette")
	}

	removed, err := c.store.DeleteVotesForPalette(ctx, slug)
	if err != nil {
		c.logger.Warn("vote cascade failed; sweep will remove orphans", "slug", slug, "error", err)
		return nil
	}
	c.logger.Info("palette deleted", "slug", slug, "votes_removed", removed)
	return nil
}

// Slugify derives a slug from a display name: lowercase ASCII letters and
// digits, with every other run of characters collapsed to one hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			if b.Len() >= 64 {
				break
			}
			continue
		}
		pendingHyphen = true
	}
	return strings.TrimRight(b.String(), "-")
}

func toColors(in []ColorInput) []storage.Color {
	out := make([]storage.Color, len(in))
	for i, ci := range in {
		out[i] = storage.Color{Value: strings.TrimSpace(ci.Value), Label: strings.TrimSpace(ci.Label)}
	}
	return out
}

func notFoundOr(err error, slug, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: palette %q", apperr.ErrNotFound, slug)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
