package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"clubcam-sync/internal/assets"
	"clubcam-sync/internal/config"
	"clubcam-sync/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const heartbeatInterval = 30 * time.Second

// message is a phoenix-protocol frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// changePayload is the payload of a postgres change broadcast.
type changePayload struct {
	Record json.RawMessage `json:"record"`
}

// Client subscribes to row changes pushed by the backend over its websocket
// endpoint. One client maintains one connection per subscription.
type Client struct {
	socketURL string
	resolver  *assets.Resolver
	dialer    *websocket.Dialer
}

// New creates a realtime client for the configured backend.
func New(cfg config.SupabaseConfig, resolver *assets.Resolver) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	switch base.Scheme {
	case "https":
		base.Scheme = "wss"
	case "http":
		base.Scheme = "ws"
	default:
		return nil, fmt.Errorf("unsupported backend URL scheme %q", base.Scheme)
	}
	base.Path += "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", cfg.AnonKey)
	q.Set("vsn", "1.0.0")
	base.RawQuery = q.Encode()

	return &Client{
		socketURL: base.String(),
		resolver:  resolver,
		dialer:    websocket.DefaultDialer,
	}, nil
}

// SubscribePhotos streams newly inserted photos for one event. Photos arrive
// on the returned channel with their public URLs resolved; the channel
// closes when ctx is cancelled or the connection drops. Records that fail to
// decode are dropped, matching the lenient list policy.
func (c *Client) SubscribePhotos(ctx context.Context, eventID string) (<-chan models.Photo, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.socketURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to realtime endpoint: %w", err)
	}

	topic := fmt.Sprintf("realtime:public:photos:event_id=eq.%s", eventID)
	join := message{Topic: topic, Event: "phx_join", Payload: json.RawMessage(`{}`), Ref: "1"}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to join channel: %w", err)
	}

	photos := make(chan models.Photo)

	go c.heartbeat(ctx, conn)
	go c.read(ctx, conn, topic, photos)

	return photos, nil
}

func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	ref := 2
	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			beat := message{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     fmt.Sprintf("%d", ref),
			}
			ref++
			if err := conn.WriteJSON(beat); err != nil {
				log.Debug().Err(err).Msg("Heartbeat write failed")
				conn.Close()
				return
			}
		}
	}
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn, topic string, photos chan<- models.Photo) {
	defer close(photos)
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				log.Debug().Err(err).Msg("Realtime connection closed")
			}
			return
		}
		if msg.Topic != topic || msg.Event != "INSERT" {
			continue
		}

		var change changePayload
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			continue
		}
		var photo models.Photo
		if err := json.Unmarshal(change.Record, &photo); err != nil {
			log.Debug().Err(err).Msg("Dropping undecodable realtime record")
			continue
		}
		if err := photo.Validate(); err != nil {
			log.Debug().Err(err).Msg("Dropping invalid realtime record")
			continue
		}

		if publicURL, err := c.resolver.Resolve(photo.StoragePath); err == nil {
			photo.PublicURL = publicURL
		}

		select {
		case photos <- photo:
		case <-ctx.Done():
			return
		}
	}
}
