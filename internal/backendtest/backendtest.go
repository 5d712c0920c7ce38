// Package backendtest provides an in-memory fake of the backend's auth, row
// store, RPC and object storage surface for tests. State is mutable and
// guarded, so one fake can serve concurrent requests; request counts are
// recorded for assertions about network activity.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"clubcam-sync/internal/config"
	"clubcam-sync/internal/decode"
	"clubcam-sync/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const signingSecret = "backendtest-secret"

type account struct {
	id       string
	password string
}

// Backend is a fake backend reachable over a local HTTP listener.
type Backend struct {
	server *httptest.Server

	mu           sync.Mutex
	accounts     map[string]account
	events       []models.Event
	participants []models.EventParticipant
	photos       []json.RawMessage
	objects      map[string][]byte
	requests     map[string]int

	// LastRadiusKm records the radius_km of the most recent proximity RPC.
	LastRadiusKm float64

	// NearbyResponse, when set, is returned verbatim by the proximity RPC
	// instead of the stored events. Lets tests serve malformed payloads.
	NearbyResponse json.RawMessage

	// HideParticipants makes participant selects return no rows while
	// inserts still see the stored records, simulating a join racing a
	// concurrent join from another device.
	HideParticipants bool

	// FailPhotoInsert makes photo row inserts fail with a server error.
	FailPhotoInsert bool
}

// New starts a fake backend. Call Close when done.
func New() *Backend {
	b := &Backend{
		accounts: make(map[string]account),
		objects:  make(map[string][]byte),
		requests: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(b.countRequests)

	r.Post("/auth/v1/signup", b.handleSignUp)
	r.Post("/auth/v1/token", b.handleToken)
	r.Post("/auth/v1/logout", b.handleLogout)

	r.Post("/rest/v1/rpc/nearby_events", b.handleNearby)
	r.Get("/rest/v1/events", b.handleGetEvents)
	r.Post("/rest/v1/events", b.handleInsertEvent)
	r.Get("/rest/v1/event_participants", b.handleGetParticipants)
	r.Post("/rest/v1/event_participants", b.handleInsertParticipant)
	r.Get("/rest/v1/photos", b.handleGetPhotos)
	r.Post("/rest/v1/photos", b.handleInsertPhoto)

	r.Post("/storage/v1/object/{bucket}/*", b.handleUpload)

	b.server = httptest.NewServer(r)
	return b
}

// Close shuts the fake down.
func (b *Backend) Close() {
	b.server.Close()
}

// URL returns the fake's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Config returns a client configuration pointed at the fake.
func (b *Backend) Config() *config.Config {
	return &config.Config{
		Supabase: config.SupabaseConfig{
			URL:     b.server.URL,
			AnonKey: "test-anon-key",
			Bucket:  "event-photos",
		},
		Events: config.EventsConfig{
			DefaultRadiusKm: 25,
			MaxRadiusKm:     100,
		},
	}
}

// Requests returns how many requests hit the given path prefix.
func (b *Backend) Requests(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for path, n := range b.requests {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

// AddEvent stores an event row.
func (b *Backend) AddEvent(event models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// AddPhotoRaw stores a raw photo row, bypassing validation so tests can
// plant malformed records.
func (b *Backend) AddPhotoRaw(raw json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.photos = append(b.photos, raw)
}

// ParticipantCount reports how many join records exist for the pair.
func (b *Backend) ParticipantCount(eventID, userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, p := range b.participants {
		if p.EventID == eventID && p.UserID == userID {
			count++
		}
	}
	return count
}

// ObjectCount reports how many blobs are stored.
func (b *Backend) ObjectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// Object returns a stored blob and whether it exists.
func (b *Backend) Object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, exists := b.objects[key]
	return data, exists
}

func (b *Backend) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests[r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func mintToken(userID, email string) string {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	return token
}

func (b *Backend) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, map[string]string{"msg": "invalid signup"}, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[req.Email]; exists {
		b.mu.Unlock()
		writeJSON(w, map[string]string{"msg": "user already registered"}, http.StatusUnprocessableEntity)
		return
	}
	acct := account{id: uuid.New().String(), password: req.Password}
	b.accounts[req.Email] = acct
	b.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"access_token": mintToken(acct.id, req.Email),
		"token_type":   "bearer",
		"expires_in":   3600,
		"user":         map[string]string{"id": acct.id, "email": req.Email},
	}, http.StatusOK)
}

func (b *Backend) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "password" {
		writeJSON(w, map[string]string{"msg": "unsupported grant type"}, http.StatusBadRequest)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]string{"msg": "invalid request"}, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	acct, exists := b.accounts[req.Email]
	b.mu.Unlock()
	if !exists || acct.password != req.Password {
		writeJSON(w, map[string]string{"msg": "invalid login credentials"}, http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"access_token": mintToken(acct.id, req.Email),
		"token_type":   "bearer",
		"expires_in":   3600,
		"user":         map[string]string{"id": acct.id, "email": req.Email},
	}, http.StatusOK)
}

func (b *Backend) handleLogout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleNearby(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
		RadiusKm float64 `json:"radius_km"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, map[string]string{"msg": "invalid rpc params"}, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.LastRadiusKm = params.RadiusKm
	canned := b.NearbyResponse
	events := append([]models.Event(nil), b.events...)
	b.mu.Unlock()

	if canned != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(canned)
		return
	}
	writeJSON(w, events, http.StatusOK)
}

func (b *Backend) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("id")

	b.mu.Lock()
	events := append([]models.Event(nil), b.events...)
	b.mu.Unlock()

	if ids, isIn := parseInFilter(filter); isIn {
		matched := make([]models.Event, 0, len(ids))
		for _, e := range events {
			if ids[e.ID] {
				matched = append(matched, e)
			}
		}
		events = matched
	}
	writeJSON(w, events, http.StatusOK)
}

func (b *Backend) handleInsertEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, map[string]string{"msg": "invalid row"}, http.StatusBadRequest)
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := decode.NewTime(time.Now())
	event.CreatedAt = now
	event.UpdatedAt = now

	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()

	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, []models.Event{event}, http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (b *Backend) handleGetParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimPrefix(r.URL.Query().Get("event_id"), "eq.")
	userID := strings.TrimPrefix(r.URL.Query().Get("user_id"), "eq.")

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.HideParticipants {
		writeJSON(w, []models.EventParticipant{}, http.StatusOK)
		return
	}

	matched := make([]models.EventParticipant, 0)
	for _, p := range b.participants {
		if eventID != "" && p.EventID != eventID {
			continue
		}
		if userID != "" && p.UserID != userID {
			continue
		}
		matched = append(matched, p)
	}
	writeJSON(w, matched, http.StatusOK)
}

func (b *Backend) handleInsertParticipant(w http.ResponseWriter, r *http.Request) {
	var p models.EventParticipant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, map[string]string{"msg": "invalid row"}, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Unique index on (event_id, user_id).
	for _, existing := range b.participants {
		if existing.EventID == p.EventID && existing.UserID == p.UserID {
			writeJSON(w, map[string]string{
				"code":    "23505",
				"message": "duplicate key value violates unique constraint",
			}, http.StatusConflict)
			return
		}
	}

	b.participants = append(b.participants, p)
	w.WriteHeader(http.StatusCreated)
}

func (b *Backend) handleGetPhotos(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimPrefix(r.URL.Query().Get("event_id"), "eq.")
	descending := r.URL.Query().Get("order") == "taken_at.desc"

	b.mu.Lock()
	raws := append([]json.RawMessage(nil), b.photos...)
	b.mu.Unlock()

	type row struct {
		raw     json.RawMessage
		takenAt time.Time
	}
	matched := make([]row, 0, len(raws))
	for _, raw := range raws {
		var fields struct {
			EventID string      `json:"event_id"`
			TakenAt decode.Time `json:"taken_at"`
		}
		// Keep rows whose taken_at is unreadable so decoder tests see them.
		json.Unmarshal(raw, &fields)
		if eventID != "" && fields.EventID != eventID {
			continue
		}
		matched = append(matched, row{raw: raw, takenAt: fields.TakenAt.Time})
	}
	if descending {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].takenAt.After(matched[j].takenAt)
		})
	}

	out := make([]json.RawMessage, len(matched))
	for i, m := range matched {
		out[i] = m.raw
	}
	writeJSON(w, out, http.StatusOK)
}

func (b *Backend) handleInsertPhoto(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	failInsert := b.FailPhotoInsert
	b.mu.Unlock()
	if failInsert {
		writeJSON(w, map[string]string{"msg": "internal error"}, http.StatusInternalServerError)
		return
	}

	var photo models.Photo
	if err := json.NewDecoder(r.Body).Decode(&photo); err != nil {
		writeJSON(w, map[string]string{"msg": "invalid row"}, http.StatusBadRequest)
		return
	}
	photo.CreatedAt = decode.NewTime(time.Now())

	raw, _ := json.Marshal(photo)
	b.mu.Lock()
	b.photos = append(b.photos, raw)
	b.mu.Unlock()

	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, []models.Photo{photo}, http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, map[string]string{"msg": "failed to read body"}, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()

	writeJSON(w, map[string]string{"Key": fmt.Sprintf("%s/%s", bucket, key)}, http.StatusOK)
}

// parseInFilter parses a PostgREST "in.(a,b,c)" filter value.
func parseInFilter(filter string) (map[string]bool, bool) {
	if !strings.HasPrefix(filter, "in.(") || !strings.HasSuffix(filter, ")") {
		return nil, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(filter, "in.("), ")")
	ids := make(map[string]bool)
	for _, id := range strings.Split(inner, ",") {
		if id != "" {
			ids[id] = true
		}
	}
	return ids, true
}
