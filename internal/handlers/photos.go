package handlers

import (
	"io"
	"net/http"

	"clubcam-sync/internal/models"
	"clubcam-sync/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// 10 MB, matches the backend's default object size limit.
const maxUploadBytes = 10 << 20

// PhotoHandler handles photo-related HTTP requests.
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// photoResponse surfaces the derived public URL alongside the stored record.
type photoResponse struct {
	models.Photo
	PublicURL string `json:"public_url"`
}

func toPhotoResponses(photos []models.Photo) []photoResponse {
	out := make([]photoResponse, len(photos))
	for i, p := range photos {
		out[i] = photoResponse{Photo: p, PublicURL: p.PublicURL}
	}
	return out
}

// List handles GET /api/v1/events/{event_id}/photos
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		respondError(w, "event_id is required", http.StatusBadRequest)
		return
	}

	photos, err := h.photoService.ByEvent(r.Context(), eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to fetch photos")
		respondFailure(w, err)
		return
	}
	respondJSON(w, toPhotoResponses(photos), http.StatusOK)
}

// Upload handles POST /api/v1/events/{event_id}/photos with a raw JPEG
// body. An optional caption comes in the X-Caption header.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		respondError(w, "event_id is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		respondError(w, "failed to read image data", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		respondError(w, "image data is required", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		respondError(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	var opts services.UploadOptions
	if caption := r.Header.Get("X-Caption"); caption != "" {
		opts.Caption = &caption
	}

	photo, err := h.photoService.Upload(r.Context(), eventID, data, opts)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to upload photo")
		respondFailure(w, err)
		return
	}
	respondJSON(w, photoResponse{Photo: photo, PublicURL: photo.PublicURL}, http.StatusCreated)
}
