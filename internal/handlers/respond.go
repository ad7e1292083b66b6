// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/storeops/backoffice-be/internal/core/domain"
)

// respondJSON writes data as a JSON response body
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error body
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError translates the domain failure taxonomy into HTTP
// status codes. Unknown errors become opaque 500s so internals never
// leak to clients.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderCancelled):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTimeout):
		respondError(w, http.StatusRequestTimeout, "operation timed out, please retry")
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// parsePagination reads page/limit query parameters with sane bounds
func parsePagination(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 50

	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			pageSize = v
		}
	}
	return page, pageSize
}
