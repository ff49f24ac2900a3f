// Package session issues and tracks anonymous session identities.
//
// A session token is the only identity the service knows. It gates voting and
// decides palette ownership; nothing else grants either.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sipico/palette-api/internal/storage"
)

// tokenBytes is the amount of randomness in a session token (256 bits).
const tokenBytes = 32

// Store is the persistence the registry needs.
type Store interface {
	CreateSession(ctx context.Context, sess *storage.Session) error
	TouchSession(ctx context.Context, token string, at time.Time) (bool, error)
}

// Registry creates sessions and refreshes their liveness.
type Registry struct {
	store  Store
	salt   []byte
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates a registry. salt keys the HMAC applied to client
// addresses before they are stored.
func NewRegistry(store Store, salt string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		salt:   []byte(salt),
		logger: logger,
		now:    time.Now,
	}
}

// Create issues a fresh session for a client at clientAddr.
func (r *Registry) Create(ctx context.Context, clientAddr string) (*storage.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	sess := &storage.Session{
		Token:      token,
		IPHash:     HashAddr(clientAddr, r.salt),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := r.store.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// 256 random bits colliding means the entropy source is broken.
			return nil, fmt.Errorf("session token collision: %w", err)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Debug("session created", "ip_hash", sess.IPHash)
	return sess, nil
}

// Touch refreshes the last-seen time of token. An unknown token is reported
// as found=false and is not an error.
func (r *Registry) Touch(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	found, err := r.store.TouchSession(ctx, token, r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}
	return found, nil
}

// Owns reports whether token owns p. Anonymous palettes have no owner.
func Owns(token string, p *storage.Palette) bool {
	if token == "" || p == nil {
		return false
	}
	switch o := p.Owner.(type) {
	case storage.SessionOwner:
		return subtle.ConstantTimeCompare([]byte(token), []byte(o.Token)) == 1
	default:
		return false
	}
}

// HashAddr returns the hex HMAC-SHA256 of addr keyed by salt.
func HashAddr(addr string, salt []byte) string {
	h := hmac.New(sha256.New, salt)
	h.Write([]byte(addr))
	return hex.EncodeToString(h.Sum(nil))
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
