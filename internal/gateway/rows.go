package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clubcam-sync/internal/decode"
	"clubcam-sync/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NearbyEvents invokes the server-side proximity function. radiusKm is
// passed through as given; bounding it is the caller's responsibility.
func (g *Gateway) NearbyEvents(ctx context.Context, lat, lng, radiusKm float64) ([]models.Event, error) {
	payload, err := json.Marshal(map[string]float64{
		"lat":       lat,
		"lng":       lng,
		"radius_km": radiusKm,
	})
	if err != nil {
		return nil, &ReadError{Op: "nearby_events", Err: err}
	}

	req, err := g.newRequest(ctx, http.MethodPost, g.baseURL+"/rest/v1/rpc/nearby_events", payload)
	if err != nil {
		return nil, &ReadError{Op: "nearby_events", Err: err}
	}
	body, status, err := g.do(req)
	if err != nil {
		return nil, &ReadError{Op: "nearby_events", Status: status, Err: err}
	}
	if !ok(status) {
		return nil, &ReadError{Op: "nearby_events", Status: status, Err: statusError(status, body)}
	}

	return decode.ListFlexible[models.Event](body), nil
}

// EventsByIDs fetches the events with the given ids. An empty id set returns
// an empty slice immediately, without touching the network.
func (g *Gateway) EventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", fmt.Sprintf("in.(%s)", strings.Join(ids, ",")))

	req, err := g.newRequest(ctx, http.MethodGet, g.restURL("events", q), nil)
	if err != nil {
		return nil, &ReadError{Op: "events_by_ids", Err: err}
	}
	body, status, err := g.do(req)
	if err != nil {
		return nil, &ReadError{Op: "events_by_ids", Status: status, Err: err}
	}
	if !ok(status) {
		return nil, &ReadError{Op: "events_by_ids", Status: status, Err: statusError(status, body)}
	}

	return decode.ListFlexible[models.Event](body), nil
}

// InsertEvent creates an event row and returns the server-materialized
// record, including server-assigned timestamps.
func (g *Gateway) InsertEvent(ctx context.Context, event models.Event) (models.Event, error) {
	body, err := g.insertReturning(ctx, "events", event)
	if err != nil {
		return models.Event{}, err
	}
	created, err := decode.One[models.Event](body)
	if err != nil {
		return models.Event{}, &WriteError{Op: "insert_event", Err: err}
	}
	return created, nil
}

// JoinedEventIDs returns the ids of the events the user has joined.
func (g *Gateway) JoinedEventIDs(ctx context.Context, userID string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "event_id")
	q.Set("user_id", "eq."+userID)

	req, err := g.newRequest(ctx, http.MethodGet, g.restURL("event_participants", q), nil)
	if err != nil {
		return nil, &ReadError{Op: "joined_event_ids", Err: err}
	}
	body, status, err := g.do(req)
	if err != nil {
		return nil, &ReadError{Op: "joined_event_ids", Status: status, Err: err}
	}
	if !ok(status) {
		return nil, &ReadError{Op: "joined_event_ids", Status: status, Err: statusError(status, body)}
	}

	var rows []struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &ReadError{Op: "joined_event_ids", Status: status, Err: err}
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.EventID != "" {
			ids = append(ids, row.EventID)
		}
	}
	return ids, nil
}

// ParticipantExists reports whether a join record exists for the pair.
func (g *Gateway) ParticipantExists(ctx context.Context, eventID, userID string) (bool, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("event_id", "eq."+eventID)
	q.Set("user_id", "eq."+userID)

	req, err := g.newRequest(ctx, http.MethodGet, g.restURL("event_participants", q), nil)
	if err != nil {
		return false, &ReadError{Op: "participant_exists", Err: err}
	}
	body, status, err := g.do(req)
	if err != nil {
		return false, &ReadError{Op: "participant_exists", Status: status, Err: err}
	}
	if !ok(status) {
		return false, &ReadError{Op: "participant_exists", Status: status, Err: statusError(status, body)}
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return false, &ReadError{Op: "participant_exists", Status: status, Err: err}
	}
	return len(rows) > 0, nil
}

// InsertParticipant creates the join record for the pair. The id and join
// timestamp are generated here. A uniqueness conflict surfaces as a
// WriteError whose Conflict method reports true.
func (g *Gateway) InsertParticipant(ctx context.Context, eventID, userID string) error {
	participant := models.EventParticipant{
		ID:       uuid.New().String(),
		EventID:  eventID,
		UserID:   userID,
		JoinedAt: decode.NewTime(time.Now()),
	}

	payload, err := json.Marshal(participant)
	if err != nil {
		return &WriteError{Op: "insert_participant", Err: err}
	}
	req, err := g.newRequest(ctx, http.MethodPost, g.restURL("event_participants", nil), payload)
	if err != nil {
		return &WriteError{Op: "insert_participant", Err: err}
	}
	body, status, err := g.do(req)
	if err != nil {
		return &WriteError{Op: "insert_participant", Status: status, Err: err}
	}
	if !ok(status) {
		return &WriteError{Op: "insert_participant", Status: status, Err: statusError(status, body)}
	}
	return nil
}

// InsertPhoto creates a photo row and returns the server-materialized
// record with its public URL resolved.
func (g *Gateway) InsertPhoto(ctx context.Context, photo models.Photo) (models.Photo, error) {
	body, err := g.insertReturning(ctx, "photos", photo)
	if err != nil {
		return models.Photo{}, err
	}
	created, err := decode.One[models.Photo](body)
	if err != nil {
		return models.Photo{}, &WriteError{Op: "insert_photo", Err: err}
	}
	g.resolvePhotoURL(&created)
	return created, nil
}

// PhotosByEvent returns the event's photos ordered by capture time, newest
// first, each with its public URL resolved.
func (g *Gateway) PhotosByEvent(ctx context.Context, eventID string) ([]models.Photo, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("event_id", "eq."+eventID)
	q.Set("order", "taken_at.desc")

	req, err := g.newRequest(ctx, http.MethodGet, g.restURL("photos", q), nil)
	if err != nil {
		return nil, &ReadError{Op: "photos_by_event", Err: err}
	}
	body, status, err := g.do(req)
	if err != nil {
		return nil, &ReadError{Op: "photos_by_event", Status: status, Err: err}
	}
	if !ok(status) {
		return nil, &ReadError{Op: "photos_by_event", Status: status, Err: statusError(status, body)}
	}

	photos := decode.ListFlexible[models.Photo](body)
	for i := range photos {
		g.resolvePhotoURL(&photos[i])
	}
	return photos, nil
}

// insertReturning posts a row and asks the backend to echo the stored
// representation back.
func (g *Gateway) insertReturning(ctx context.Context, table string, row any) ([]byte, error) {
	op := "insert_" + strings.TrimSuffix(table, "s")

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, &WriteError{Op: op, Err: err}
	}
	req, err := g.newRequest(ctx, http.MethodPost, g.restURL(table, nil), payload)
	if err != nil {
		return nil, &WriteError{Op: op, Err: err}
	}
	req.Header.Set("Prefer", "return=representation")

	body, status, err := g.do(req)
	if err != nil {
		return nil, &WriteError{Op: op, Status: status, Err: err}
	}
	if !ok(status) {
		return nil, &WriteError{Op: op, Status: status, Err: statusError(status, body)}
	}
	return body, nil
}

func (g *Gateway) resolvePhotoURL(photo *models.Photo) {
	publicURL, err := g.resolver.Resolve(photo.StoragePath)
	if err != nil {
		log.Debug().Err(err).Str("photo_id", photo.ID).Msg("Failed to resolve photo URL")
		return
	}
	photo.PublicURL = publicURL
}
