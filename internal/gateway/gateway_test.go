package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"clubcam-sync/internal/backendtest"
	"clubcam-sync/internal/decode"
	"clubcam-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) (*Gateway, *backendtest.Backend) {
	t.Helper()
	backend := backendtest.New()
	t.Cleanup(backend.Close)

	gw, err := New(backend.Config())
	require.NoError(t, err)
	return gw, backend
}

func makeEvent(id string) models.Event {
	start := decode.NewTime(time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC))
	end := decode.NewTime(time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC))
	return models.Event{
		ID:        id,
		Name:      "Event " + id,
		Location:  "Warehouse 12",
		Latitude:  37.7749,
		Longitude: -122.4194,
		StartTime: start,
		EndTime:   end,
		CreatedBy: "u1",
		CreatedAt: start,
		UpdatedAt: start,
	}
}

func makePhotoJSON(id, eventID, takenAt string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"event_id": %q,
		"user_id": "u1",
		"storage_path": "photos/%s/%s.jpg",
		"taken_at": %q,
		"created_at": %q
	}`, id, eventID, eventID, id, takenAt, takenAt))
}

func TestSignUpEstablishesSession(t *testing.T) {
	gw, _ := newTestGateway(t)

	user, err := gw.SignUp(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	session, err := gw.Session()
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEmpty(t, session.AccessToken)
}

func TestSignInWrongPassword(t *testing.T) {
	gw, _ := newTestGateway(t)

	_, err := gw.SignUp(context.Background(), "bob@example.com", "correct")
	require.NoError(t, err)

	_, err = gw.SignIn(context.Background(), "bob@example.com", "wrong")
	require.Error(t, err)

	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestSignOutClearsSession(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.SignUp(ctx, "carol@example.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, gw.SignOut(ctx))

	_, err = gw.Session()
	assert.ErrorIs(t, err, ErrNoSession)

	// A second sign-out has no session to revoke.
	assert.ErrorIs(t, gw.SignOut(ctx), ErrNoSession)
}

func TestSessionWithoutSignIn(t *testing.T) {
	gw, _ := newTestGateway(t)
	_, err := gw.Session()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEventsByIDsEmptySkipsNetwork(t *testing.T) {
	gw, backend := newTestGateway(t)

	events, err := gw.EventsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 0, backend.Requests("/rest/v1/events"),
		"empty id set must not produce a network call")
}

func TestEventsByIDs(t *testing.T) {
	gw, backend := newTestGateway(t)
	backend.AddEvent(makeEvent("e1"))
	backend.AddEvent(makeEvent("e2"))
	backend.AddEvent(makeEvent("e3"))

	events, err := gw.EventsByIDs(context.Background(), []string{"e1", "e3"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e3", events[1].ID)
}

func TestNearbyEventsPassesRadius(t *testing.T) {
	gw, backend := newTestGateway(t)
	backend.AddEvent(makeEvent("e1"))

	events, err := gw.NearbyEvents(context.Background(), 37.7749, -122.4194, 42)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 42.0, backend.LastRadiusKm)
}

func TestNearbyEventsDropsMalformedRecords(t *testing.T) {
	gw, backend := newTestGateway(t)

	good1, _ := json.Marshal(makeEvent("e1"))
	good2, _ := json.Marshal(makeEvent("e2"))
	backend.NearbyResponse = json.RawMessage(fmt.Sprintf(
		`[%s, {"id": "broken"}, %s]`, good1, good2))

	events, err := gw.NearbyEvents(context.Background(), 37.7749, -122.4194, 10)
	require.NoError(t, err, "a malformed record must not fail the fetch")
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)
}

func TestInsertEventReturnsStoredRecord(t *testing.T) {
	gw, _ := newTestGateway(t)

	event := makeEvent("e9")
	event.CreatedAt = decode.Time{}
	event.UpdatedAt = decode.Time{}

	created, err := gw.InsertEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "e9", created.ID)
	assert.False(t, created.CreatedAt.IsZero(), "server-assigned created_at expected")
}

func TestParticipantLifecycle(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	exists, err := gw.ParticipantExists(ctx, "e1", "u1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, gw.InsertParticipant(ctx, "e1", "u1"))

	exists, err = gw.ParticipantExists(ctx, "e1", "u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInsertParticipantConflict(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, gw.InsertParticipant(ctx, "e1", "u1"))

	err := gw.InsertParticipant(ctx, "e1", "u1")
	require.Error(t, err)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.True(t, writeErr.Conflict())
}

func TestPhotosByEventOrderedWithURLs(t *testing.T) {
	gw, backend := newTestGateway(t)

	backend.AddPhotoRaw(makePhotoJSON("p1", "e1", "2025-06-01T20:00:00Z"))
	backend.AddPhotoRaw(makePhotoJSON("p2", "e1", "2025-06-01T22:00:00.123456Z"))
	backend.AddPhotoRaw(makePhotoJSON("p3", "e2", "2025-06-01T23:00:00Z"))

	photos, err := gw.PhotosByEvent(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, photos, 2)

	assert.Equal(t, "p2", photos[0].ID, "newest capture first")
	assert.Equal(t, "p1", photos[1].ID)
	for _, p := range photos {
		assert.NotEmpty(t, p.PublicURL)
		assert.Contains(t, p.PublicURL, "/storage/v1/object/public/event-photos/")
	}
}

func TestPhotosByEventDropsMalformedRecord(t *testing.T) {
	gw, backend := newTestGateway(t)

	backend.AddPhotoRaw(makePhotoJSON("p1", "e1", "2025-06-01T20:00:00Z"))
	backend.AddPhotoRaw(json.RawMessage(`{"id": "p2", "event_id": "e1", "taken_at": "2025-06-01T21:00:00Z"}`))
	backend.AddPhotoRaw(makePhotoJSON("p3", "e1", "2025-06-01T22:00:00Z"))

	photos, err := gw.PhotosByEvent(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, photos, 2, "record missing required fields is dropped, not fatal")
}

func TestUploadObject(t *testing.T) {
	gw, backend := newTestGateway(t)

	data := []byte("jpeg bytes")
	require.NoError(t, gw.UploadObject(context.Background(), "photos/e1/x.jpg", data, "image/jpeg"))

	stored, exists := backend.Object("photos/e1/x.jpg")
	require.True(t, exists)
	assert.Equal(t, data, stored)
}

func TestNewRequiresConfiguration(t *testing.T) {
	backend := backendtest.New()
	t.Cleanup(backend.Close)

	cfg := backend.Config()
	cfg.Supabase.AnonKey = ""
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = backend.Config()
	cfg.Supabase.URL = ""
	_, err = New(cfg)
	assert.Error(t, err)
}
