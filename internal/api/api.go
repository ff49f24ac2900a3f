// Package api serves the palette HTTP interface.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sipico/palette-api/internal/config"
	"github.com/sipico/palette-api/internal/ledger"
	"github.com/sipico/palette-api/internal/logging"
	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/middleware"
	"github.com/sipico/palette-api/internal/moderation"
	"github.com/sipico/palette-api/internal/palette"
	"github.com/sipico/palette-api/internal/ratelimit"
	"github.com/sipico/palette-api/internal/retention"
	"github.com/sipico/palette-api/internal/session"
)

// SessionHeader carries the session token on session-aware requests.
const SessionHeader = "X-Session-Token"

// readyTimeout bounds the storage ping behind GET /ready.
const readyTimeout = 5 * time.Second

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the components a Handler serves. Logger, LogLevel and
// MaxBodyBytes have defaults; the rest are required.
type Deps struct {
	Storage        Pinger
	Sessions       *session.Registry
	Catalog        *palette.Catalog
	Ledger         *ledger.Ledger
	Moderation     *moderation.Queue
	Sweeper        *retention.Sweeper
	Limiter        *ratelimit.Limiter
	AdminTokenHash []byte // bcrypt hash of the admin bearer token
	MaxBodyBytes   int64
	LogLevel       *slog.LevelVar
	Logger         *slog.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	storage        Pinger
	sessions       *session.Registry
	catalog        *palette.Catalog
	ledger         *ledger.Ledger
	moderation     *moderation.Queue
	sweeper        *retention.Sweeper
	limiter        *ratelimit.Limiter
	adminTokenHash []byte
	maxBodyBytes   int64
	logLevel       *slog.LevelVar
	logger         *slog.Logger
}

// NewHandler creates an API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.LogLevel == nil {
		d.LogLevel = new(slog.LevelVar)
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	return &Handler{
		storage:        d.Storage,
		sessions:       d.Sessions,
		catalog:        d.Catalog,
		ledger:         d.Ledger,
		moderation:     d.Moderation,
		sweeper:        d.Sweeper,
		limiter:        d.Limiter,
		adminTokenHash: d.AdminTokenHash,
		maxBodyBytes:   d.MaxBodyBytes,
		logLevel:       d.LogLevel,
		logger:         d.Logger,
	}
}

// NewRouter creates the API router.
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.HTTPLogging(h.logger, logging.SecretFields))

	// Probes are exempt from rate limiting.
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(h.maxBodyBytes))
		r.Use(h.RateLimitMiddleware)
		r.Use(h.SessionMiddleware)

		r.Post("/sessions", h.HandleCreateSession)

		r.Get("/palettes", h.HandleListPalettes)
		r.Post("/palettes", h.HandlePublishPalette)
		r.Get("/palettes/{slug}", h.HandleGetPalette)
		r.Patch("/palettes/{slug}", h.HandleRenamePalette)
		r.Post("/palettes/{slug}/vote", h.HandleVote)
		r.Post("/legacy/palettes", h.HandlePublishLegacyPalette)

		r.Post("/colors/propose", h.HandleProposeColor)
		r.Get("/colors/approved", h.HandleListApprovedColors)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.AdminAuthMiddleware)

			r.Get("/colors", h.HandleListColors)
			r.Post("/colors/{id}/approve", h.HandleApproveColor)
			r.Post("/colors/{id}/reject", h.HandleRejectColor)
			r.Post("/palettes/{slug}/feature", h.HandleFeaturePalette)
			r.Delete("/palettes/{slug}", h.HandleDeletePalette)
			r.Post("/sweep", h.HandleSweep)
			r.Post("/loglevel", h.HandleSetLogLevel)
		})
	})

	return r
}
