package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubcam-sync/internal/config"
	"clubcam-sync/internal/decode"
	"clubcam-sync/internal/gateway"
	"clubcam-sync/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrAlreadyJoined indicates the user already holds a join record for the
// event. This is an expected user-facing condition, not a fault.
var ErrAlreadyJoined = errors.New("already joined this event")

// ErrLocationUnavailable indicates a nearby fetch was requested with no
// known position.
var ErrLocationUnavailable = errors.New("location unavailable")

// ErrInvalidInput wraps caller mistakes that should surface as bad requests
// rather than faults.
var ErrInvalidInput = errors.New("invalid input")

// FetchMode selects which event list to fetch.
type FetchMode string

// Fetch modes.
const (
	ModeNearby FetchMode = "nearby"
	ModeJoined FetchMode = "joined"
)

// EventService handles event discovery, creation and membership.
type EventService struct {
	gw       *gateway.Gateway
	location LocationProvider

	defaultRadiusKm float64
	maxRadiusKm     float64
}

// NewEventService creates a new event service. location may be NoLocation
// when the caller always supplies coordinates explicitly.
func NewEventService(gw *gateway.Gateway, location LocationProvider, cfg config.EventsConfig) *EventService {
	return &EventService{
		gw:              gw,
		location:        location,
		defaultRadiusKm: cfg.DefaultRadiusKm,
		maxRadiusKm:     cfg.MaxRadiusKm,
	}
}

// Nearby returns events around the given position. A radius of zero or less
// takes the configured default; anything above the configured maximum is
// clamped.
func (s *EventService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Event, error) {
	radiusKm = s.boundRadius(radiusKm)
	events, err := s.gw.NearbyEvents(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nearby events: %w", err)
	}
	return events, nil
}

// Joined returns the events the signed-in user has joined: participant rows
// first, then the event rows by id.
func (s *EventService) Joined(ctx context.Context) ([]models.Event, error) {
	session, err := s.gw.Session()
	if err != nil {
		return nil, err
	}

	ids, err := s.gw.JoinedEventIDs(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch joined event ids: %w", err)
	}

	events, err := s.gw.EventsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch joined events: %w", err)
	}
	return events, nil
}

// Fetch returns the event list for the given mode. ModeNearby pulls the
// position from the location provider and fails with ErrLocationUnavailable
// when it has none; ModeJoined requires a session.
func (s *EventService) Fetch(ctx context.Context, mode FetchMode) ([]models.Event, error) {
	switch mode {
	case ModeJoined:
		return s.Joined(ctx)
	case ModeNearby:
		pos, known := s.location.Current(ctx)
		if !known {
			return nil, ErrLocationUnavailable
		}
		return s.Nearby(ctx, pos.Latitude, pos.Longitude, 0)
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", mode)
	}
}

// Join adds the signed-in user to the event. A user can join an event at
// most once: a pre-check catches the common case cheaply, and a uniqueness
// conflict from the insert is treated as the same condition, so concurrent
// joins from two devices cannot produce a duplicate record. On success the
// refreshed joined list is returned.
func (s *EventService) Join(ctx context.Context, eventID string) ([]models.Event, error) {
	session, err := s.gw.Session()
	if err != nil {
		return nil, err
	}

	joined, err := s.gw.ParticipantExists(ctx, eventID, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if joined {
		return nil, ErrAlreadyJoined
	}

	if err := s.gw.InsertParticipant(ctx, eventID, session.UserID); err != nil {
		var writeErr *gateway.WriteError
		if errors.As(err, &writeErr) && writeErr.Conflict() {
			return nil, ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to join event: %w", err)
	}

	log.Info().Str("event_id", eventID).Str("user_id", session.UserID).Msg("Joined event")

	return s.Joined(ctx)
}

// CreateEventParams are the caller-supplied fields of a new event.
type CreateEventParams struct {
	Name        string
	Description *string
	Location    string
	Latitude    float64
	Longitude   float64
	StartTime   time.Time
	EndTime     time.Time
}

// Create inserts a new event owned by the signed-in user and returns the
// stored record.
func (s *EventService) Create(ctx context.Context, params CreateEventParams) (models.Event, error) {
	session, err := s.gw.Session()
	if err != nil {
		return models.Event{}, err
	}

	if params.Name == "" {
		return models.Event{}, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if params.Location == "" {
		return models.Event{}, fmt.Errorf("%w: event location is required", ErrInvalidInput)
	}
	if params.EndTime.Before(params.StartTime) {
		return models.Event{}, fmt.Errorf("%w: event end time precedes start time", ErrInvalidInput)
	}

	now := decode.NewTime(time.Now())
	event := models.Event{
		Name:        params.Name,
		Description: params.Description,
		Location:    params.Location,
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
		StartTime:   decode.NewTime(params.StartTime),
		EndTime:     decode.NewTime(params.EndTime),
		CreatedBy:   session.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.gw.InsertEvent(ctx, event)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (s *EventService) boundRadius(radiusKm float64) float64 {
	if radiusKm <= 0 {
		return s.defaultRadiusKm
	}
	if radiusKm > s.maxRadiusKm {
		return s.maxRadiusKm
	}
	return radiusKm
}
