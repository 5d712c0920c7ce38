package handlers

import (
	"encoding/json"
	"net/http"

	"clubcam-sync/internal/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FeedHandler streams newly inserted photos for an event as they arrive
// from the backend's realtime channel.
type FeedHandler struct {
	realtime *realtime.Client
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(rt *realtime.Client) *FeedHandler {
	return &FeedHandler{realtime: rt}
}

// Stream handles GET /api/v1/events/{event_id}/photos/feed. Photos are
// written as newline-delimited JSON until the client disconnects or the
// upstream connection drops.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		respondError(w, "event_id is required", http.StatusBadRequest)
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		respondError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	photos, err := h.realtime.SubscribePhotos(r.Context(), eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to subscribe to photo feed")
		respondFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	encoder := json.NewEncoder(w)
	for photo := range photos {
		if err := encoder.Encode(photoResponse{Photo: photo, PublicURL: photo.PublicURL}); err != nil {
			return
		}
		flusher.Flush()
	}
}
