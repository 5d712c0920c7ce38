package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubcam-sync/internal/gateway"
	"clubcam-sync/internal/services"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// respondFailure maps the error taxonomy to HTTP status codes in one place.
// Expected user-facing conditions keep their message; upstream faults are
// reported as such.
func respondFailure(w http.ResponseWriter, err error) {
	var authErr *gateway.AuthError
	var readErr *gateway.ReadError
	var writeErr *gateway.WriteError
	var storageErr *gateway.StorageError

	switch {
	case errors.Is(err, gateway.ErrNoSession):
		respondError(w, "not signed in", http.StatusUnauthorized)
	case errors.Is(err, services.ErrAlreadyJoined):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrLocationUnavailable):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &authErr):
		respondError(w, "authentication failed", http.StatusUnauthorized)
	case errors.As(err, &readErr), errors.As(err, &writeErr), errors.As(err, &storageErr):
		respondError(w, "backend request failed", http.StatusBadGateway)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}
