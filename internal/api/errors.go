package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sipico/palette-api/internal/apperr"
	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/middleware"
)

// Standard error codes for API responses.
const (
	// ErrCodeInvalidRequest indicates a malformed or invalid request.
	ErrCodeInvalidRequest = "invalid_request"

	// ErrCodeSessionRequired indicates a missing or unknown session token.
	ErrCodeSessionRequired = "session_required"

	// ErrCodeAdminRequired indicates a missing or wrong admin token.
	ErrCodeAdminRequired = "admin_required"

	// ErrCodeForbidden indicates the session may not act on the resource.
	ErrCodeForbidden = "forbidden"

	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeConflict indicates a uniqueness violation.
	ErrCodeConflict = "conflict"

	// ErrCodePayloadTooLarge indicates the request body exceeded the limit.
	ErrCodePayloadTooLarge = "payload_too_large"

	// ErrCodeRateLimited indicates the client exceeded its request window.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternalError indicates a server error.
	ErrCodeInternalError = "internal_error"
)

// APIError is the standard error response format.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response with the given status code, error code, and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps an error from the domain packages to a response.
// Errors that wrap no apperr sentinel are logged and answered as 500
// without leaking their text.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, apperr.ErrAuthentication):
		metrics.RecordAuthFailure("missing_session")
		WriteError(w, http.StatusUnauthorized, ErrCodeSessionRequired, err.Error())
	case errors.Is(err, apperr.ErrAuthorization):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		WriteError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, apperr.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
	default:
		middleware.Logger(r.Context(), h.logger).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

// decodeJSON reads a JSON body into v. It writes the error response itself
// and reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return false
	}
	return true
}
