package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"clubcam-sync/internal/assets"
	"clubcam-sync/internal/config"
)

// Gateway is the only component that performs network I/O against the
// backend. It wraps the auth endpoint, the row store, the RPC endpoint and
// object storage behind one base URL and one API key. Construct it once at
// process start and inject it into the services that need it.
type Gateway struct {
	baseURL  string
	anonKey  string
	client   *http.Client
	resolver *assets.Resolver

	mu      sync.RWMutex
	session *Session
}

// New creates a gateway from configuration. Missing backend URL or key is a
// fatal configuration error.
func New(cfg *config.Config) (*Gateway, error) {
	if cfg.Supabase.URL == "" {
		return nil, fmt.Errorf("backend base URL is not configured")
	}
	if cfg.Supabase.AnonKey == "" {
		return nil, fmt.Errorf("backend API key is not configured")
	}

	resolver, err := assets.NewResolver(cfg.Supabase.URL, cfg.Supabase.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset resolver: %w", err)
	}

	return &Gateway{
		baseURL:  strings.TrimRight(cfg.Supabase.URL, "/"),
		anonKey:  cfg.Supabase.AnonKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		resolver: resolver,
	}, nil
}

// Resolver returns the asset URL resolver bound to this gateway's backend.
func (g *Gateway) Resolver() *assets.Resolver {
	return g.resolver
}

// restURL builds a row-store URL for a table with the given query values.
func (g *Gateway) restURL(table string, q url.Values) string {
	u := g.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// newRequest builds a request carrying the API key and, when a session is
// held, its bearer token. Anonymous requests fall back to the API key as the
// bearer, which the backend accepts for public-readable tables.
func (g *Gateway) newRequest(ctx context.Context, method, rawURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("apikey", g.anonKey)
	token := g.anonKey
	g.mu.RLock()
	if g.session != nil {
		token = g.session.AccessToken
	}
	g.mu.RUnlock()
	req.Header.Set("Authorization", "Bearer "+token)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes the request and returns the response body and status.
func (g *Gateway) do(req *http.Request) ([]byte, int, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
