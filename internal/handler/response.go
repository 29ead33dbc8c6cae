package handler

// Response helpers: every endpoint sends JSON through writeJSON and
// maps domain errors to HTTP through writeError, so the wire format is
// uniform across the API.
//
// CONSISTENT ERROR FORMAT:
//
//	{"error": "unauthorized", "message": "invalid or expired code"}
//
// The service layer returns apperror sentinels; this is the only place
// they are translated to status codes. Handlers never pick status
// codes for domain errors themselves.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hwdlte/notewell/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API
// endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code. Headers
// must be set before the first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code
// and sends it.
//
// Mapping:
//
//	ErrValidation   → 400    ErrUnauthorized → 401
//	ErrNotFound     → 404    ErrConflict     → 409
//	ErrUnavailable  → 502    anything else   → 500 (generic body)
//
// Unknown errors get a generic message — raw error text can contain
// SQL fragments, hostnames, or other internals that must not reach the
// client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnavailable):
			status = http.StatusBadGateway
			errorType = "unavailable"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
