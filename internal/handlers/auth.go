package handlers

import (
	"encoding/json"
	"net/http"

	"clubcam-sync/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles auth-related HTTP requests.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, valid := decodeCredentials(w, r)
	if !valid {
		return
	}

	user, err := h.authService.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Sign-up failed")
		respondFailure(w, err)
		return
	}
	respondJSON(w, user, http.StatusCreated)
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, valid := decodeCredentials(w, r)
	if !valid {
		return
	}

	user, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Sign-in failed")
		respondFailure(w, err)
		return
	}
	respondJSON(w, user, http.StatusOK)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authService.CurrentUserID(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, map[string]string{"user_id": userID}, http.StatusOK)
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(r.Context()); err != nil {
		log.Error().Err(err).Msg("Sign-out failed")
		respondFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
