package api

import (
	"net/http"
	"time"

	"github.com/sipico/palette-api/internal/moderation"
	"github.com/sipico/palette-api/internal/storage"
)

// ColorNameResponse represents a proposed color name in API responses.
type ColorNameResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	CSS         string             `json:"css"`
	Contributor string             `json:"contributor,omitempty"`
	Status      storage.NameStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	ApprovedAt  *time.Time         `json:"approvedAt,omitempty"`
}

func newColorNameResponse(n *storage.ProposedName) ColorNameResponse {
	return ColorNameResponse{
		ID:          n.ID,
		Name:        n.Name,
		CSS:         n.CSS,
		Contributor: n.Contributor,
		Status:      n.Status,
		CreatedAt:   n.CreatedAt,
		ApprovedAt:  n.ApprovedAt,
	}
}

func newColorNameList(names []*storage.ProposedName) []ColorNameResponse {
	resp := make([]ColorNameResponse, 0, len(names))
	for _, n := range names {
		resp = append(resp, newColorNameResponse(n))
	}
	return resp
}

// HandleProposeColor submits a color name for moderation
// POST /colors/propose
// Body: {"name": "...", "css": "...", "contributor": "..."}
func (h *Handler) HandleProposeColor(w http.ResponseWriter, r *http.Request) {
	var in moderation.Proposal
	if !decodeJSON(w, r, &in) {
		return
	}

	n, err := h.moderation.Submit(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newColorNameResponse(n))
}

// HandleListApprovedColors lists approved names sorted by name
// GET /colors/approved
func (h *Handler) HandleListApprovedColors(w http.ResponseWriter, r *http.Request) {
	names, err := h.moderation.ListApproved(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newColorNameList(names))
}
