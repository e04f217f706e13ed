package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/export"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/lock"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string            `json:"error" validate:"required"`
	Fields map[string]string `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, export.ErrNoEntries):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUniqueViolation):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusPreconditionFailed, errorBody("etag mismatch"))
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error(), Fields: journal.FieldErrors(err)})
	case errors.Is(err, lock.ErrInvalidCredential):
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credential"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return false
	}
	return true
}
