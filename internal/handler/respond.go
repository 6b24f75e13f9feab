package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/copple/planner/internal/ctxkeys"
	"github.com/copple/planner/internal/service"
)

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdResponse struct {
	EventID string `json:"event_id"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// writeError maps a service error onto a status and a machine readable code.
// Causes of 5xx responses are logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, detail := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
	}
	writeJSON(w, status, errorResponse{Detail: detail, Code: code})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrMissingCredential):
		return http.StatusUnauthorized, "missing_credential", "Not authenticated"
	case errors.Is(err, service.ErrInvalidCredential):
		return http.StatusUnauthorized, "invalid_credential", "Invalid session"
	case errors.Is(err, service.ErrNoFields):
		return http.StatusBadRequest, "no_fields", "No fields to update"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "Record not found"
	case errors.Is(err, service.ErrTimeout):
		return http.StatusInternalServerError, "timeout", "The request timed out"
	case errors.Is(err, service.ErrUpload):
		return http.StatusInternalServerError, "upload_failed", "Failed to upload image"
	case errors.Is(err, service.ErrStore):
		return http.StatusInternalServerError, "store_failed", "Internal server error"
	}
	return http.StatusInternalServerError, "internal", "Internal server error"
}
