package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/palette"
	"github.com/sipico/palette-api/internal/ratelimit"
	"github.com/sipico/palette-api/internal/session"
	"github.com/sipico/palette-api/internal/storage"
)

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	Token string `json:"token"`
}

// PaletteResponse represents a palette in API responses. The owner token is
// never exposed; Owned reports whether the requesting session owns it.
type PaletteResponse struct {
	Slug      string                `json:"slug"`
	Name      string                `json:"name"`
	Colors    []storage.Color       `json:"colors"`
	VoteCount int                   `json:"voteCount"`
	Status    storage.PaletteStatus `json:"status"`
	Anonymous bool                  `json:"anonymous"`
	Owned     bool                  `json:"owned"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func newPaletteResponse(p *storage.Palette, token string) PaletteResponse {
	_, anonymous := p.Owner.(storage.AnonymousOwner)
	return PaletteResponse{
		Slug:      p.Slug,
		Name:      p.Name,
		Colors:    p.Colors,
		VoteCount: p.VoteCount,
		Status:    p.Status,
		Anonymous: anonymous,
		Owned:     session.Owns(token, p),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// HandleCreateSession issues a new anonymous session
// POST /sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create(r.Context(), ratelimit.ClientKey(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	metrics.RecordSessionCreated()
	writeJSON(w, http.StatusCreated, SessionResponse{Token: sess.Token})
}

// HandleListPalettes lists palettes newest first
// GET /palettes?limit=&offset=
func (h *Handler) HandleListPalettes(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	palettes, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	token := session.TokenFromContext(r.Context())
	resp := make([]PaletteResponse, 0, len(palettes))
	for _, p := range palettes {
		resp = append(resp, newPaletteResponse(p, token))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetPalette returns one palette
// GET /palettes/{slug}
func (h *Handler) HandleGetPalette(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaletteResponse(p, session.TokenFromContext(r.Context())))
}

// HandlePublishPalette publishes a palette owned by the calling session
// POST /palettes
func (h *Handler) HandlePublishPalette(w http.ResponseWriter, r *http.Request) {
	token, ok := requireSession(w, r)
	if !ok {
		return
	}

	var in palette.PublishInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.Publish(r.Context(), token, in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPaletteResponse(p, token))
}

// HandlePublishLegacyPalette publishes an anonymous palette
// POST /legacy/palettes
func (h *Handler) HandlePublishLegacyPalette(w http.ResponseWriter, r *http.Request) {
	var in palette.PublishInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.PublishLegacy(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPaletteResponse(p, ""))
}

// HandleRenamePalette renames a palette owned by the calling session
// PATCH /palettes/{slug}
func (h *Handler) HandleRenamePalette(w http.ResponseWriter, r *http.Request) {
	token, ok := requireSession(w, r)
	if !ok {
		return
	}

	var in palette.RenameInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.catalog.Rename(r.Context(), token, chi.URLParam(r, "slug"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaletteResponse(p, token))
}

// HandleVote toggles the calling session's vote
// POST /palettes/{slug}/vote
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	res, err := h.ledger.Toggle(r.Context(), session.TokenFromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// requireSession returns the live session token of r. Without one it writes
// 401 before the body is read, so a missing session wins over a bad body.
func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := session.TokenFromContext(r.Context())
	if token == "" {
		metrics.RecordAuthFailure("missing_session")
		WriteError(w, http.StatusUnauthorized, ErrCodeSessionRequired, "a live session token is required")
		return "", false
	}
	return token, true
}

// queryInt parses an optional integer query parameter. Absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}
