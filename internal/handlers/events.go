package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clubcam-sync/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// EventHandler handles event-related HTTP requests.
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// Nearby handles GET /api/v1/events/nearby?lat=..&lng=..&radius_km=..
// When lat/lng are absent, the configured location provider supplies the
// position.
func (h *EventHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	latStr, lngStr := query.Get("lat"), query.Get("lng")

	var radiusKm float64
	if radiusStr := query.Get("radius_km"); radiusStr != "" {
		parsed, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			respondError(w, "invalid radius_km", http.StatusBadRequest)
			return
		}
		radiusKm = parsed
	}

	if latStr == "" || lngStr == "" {
		events, err := h.eventService.Fetch(r.Context(), services.ModeNearby)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch nearby events")
			respondFailure(w, err)
			return
		}
		respondJSON(w, events, http.StatusOK)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondError(w, "invalid lat", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		respondError(w, "invalid lng", http.StatusBadRequest)
		return
	}

	events, err := h.eventService.Nearby(r.Context(), lat, lng, radiusKm)
	if err != nil {
		log.Error().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("Failed to fetch nearby events")
		respondFailure(w, err)
		return
	}
	respondJSON(w, events, http.StatusOK)
}

// Joined handles GET /api/v1/events/joined
func (h *EventHandler) Joined(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.Joined(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch joined events")
		respondFailure(w, err)
		return
	}
	respondJSON(w, events, http.StatusOK)
}

// Join handles POST /api/v1/events/{event_id}/join
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	if eventID == "" {
		respondError(w, "event_id is required", http.StatusBadRequest)
		return
	}

	events, err := h.eventService.Join(r.Context(), eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to join event")
		respondFailure(w, err)
		return
	}
	respondJSON(w, events, http.StatusOK)
}

type createEventRequest struct {
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.eventService.Create(r.Context(), services.CreateEventParams{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create event")
		respondFailure(w, err)
		return
	}
	respondJSON(w, event, http.StatusCreated)
}
