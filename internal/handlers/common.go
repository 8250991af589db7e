package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"arch-community-backend/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps the error taxonomy onto HTTP status codes.
// Unauthorized is always the same generic message, whatever the cause.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrUnauthorized):
		respondError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrForbidden):
		respondError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrConflict):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Msg("Internal error")
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.ErrValidation
	}
	return id, nil
}
