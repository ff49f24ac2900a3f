package api

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/middleware"
	"github.com/sipico/palette-api/internal/ratelimit"
	"github.com/sipico/palette-api/internal/session"
)

// RateLimitMiddleware rejects clients that exceeded their fixed window with 429.
func (h *Handler) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Admit(ratelimit.ClientKey(r)) {
			metrics.RecordRateLimited()
			WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionMiddleware refreshes the session named by X-Session-Token and, when
// it is live, puts its token in the request context. Unknown tokens and failed
// refreshes leave the request unauthenticated; routes that need a session
// answer 401 on their own.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(SessionHeader))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		found, err := h.sessions.Touch(r.Context(), token)
		if err != nil {
			middleware.Logger(r.Context(), h.logger).Warn("session touch failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !found {
			middleware.Logger(r.Context(), h.logger).Debug("unknown session token")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithToken(r.Context(), token)))
	})
}

// AdminAuthMiddleware requires "Authorization: Bearer <admin token>".
func (h *Handler) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			metrics.RecordAuthFailure("missing_admin_token")
			WriteError(w, http.StatusUnauthorized, ErrCodeAdminRequired, "missing admin bearer token")
			return
		}

		if len(h.adminTokenHash) == 0 ||
			bcrypt.CompareHashAndPassword(h.adminTokenHash, []byte(token)) != nil {
			metrics.RecordAuthFailure("invalid_admin_token")
			middleware.Logger(r.Context(), h.logger).Warn("invalid admin token attempt",
				"remote_addr", r.RemoteAddr)
			WriteError(w, http.StatusUnauthorized, ErrCodeAdminRequired, "invalid admin token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
