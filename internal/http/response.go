package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/query"
	"lifeboard/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnknownBudget), core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, query.ErrUnknownMode), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server errors are logged
// and replaced by a generic message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, op, entity string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		applog.LogError(r.Context(), "Request failed", err, op,
			applog.NewFields().WithEntity(entity, ""))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
