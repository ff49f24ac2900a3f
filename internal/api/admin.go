package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sipico/palette-api/internal/storage"
)

// SetLogLevelRequest is the body of POST /admin/loglevel.
type SetLogLevelRequest struct {
	Level string `json:"level"`
}

// HandleListColors lists proposed names in one status, "proposed" by default
// GET /admin/colors?status=
func (h *Handler) HandleListColors(w http.ResponseWriter, r *http.Request) {
	status := storage.NameStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = storage.NameProposed
	}

	names, err := h.moderation.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newColorNameList(names))
}

// HandleApproveColor approves a proposed name
// POST /admin/colors/{id}/approve
func (h *Handler) HandleApproveColor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.moderation.Approve(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": true})
}

// HandleRejectColor rejects a proposed name
// POST /admin/colors/{id}/reject
func (h *Handler) HandleRejectColor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.moderation.Reject(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"rejected": true})
}

// HandleFeaturePalette toggles a palette between published and featured
// POST /admin/palettes/{slug}/feature
func (h *Handler) HandleFeaturePalette(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	status, err := h.catalog.ToggleFeature(r.Context(), slug)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"slug": slug, "status": string(status)})
}

// HandleDeletePalette deletes a palette and its votes
// DELETE /admin/palettes/{slug}
func (h *Handler) HandleDeletePalette(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleSweep runs one retention sweep
// POST /admin/sweep
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSetLogLevel changes runtime log level
// POST /admin/loglevel
// Body: {"level": "debug|info|warn|error"}
func (h *Handler) HandleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req SetLogLevelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var level slog.Level
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid level (must be: debug, info, warn, error)")
		return
	}

	h.logLevel.Set(level)
	h.logger.Info("log level changed", "new_level", req.Level)
	writeJSON(w, http.StatusOK, map[string]string{"level": req.Level})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
