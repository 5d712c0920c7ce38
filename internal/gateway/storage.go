package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// UploadObject stores a blob at the given path in the photo bucket. The
// path's segments are kept as real URL path segments here; only the public
// retrieval URL flattens the key into one encoded component.
func (g *Gateway) UploadObject(ctx context.Context, path string, data []byte, contentType string) error {
	path = strings.TrimSpace(strings.TrimPrefix(path, "/"))
	if path == "" {
		return &StorageError{Path: path, Err: fmt.Errorf("empty object path")}
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	rawURL := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		g.baseURL, g.resolver.Bucket(), strings.Join(segments, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	req.Header.Set("apikey", g.anonKey)
	token := g.anonKey
	g.mu.RLock()
	if g.session != nil {
		token = g.session.AccessToken
	}
	g.mu.RUnlock()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := g.client.Do(req)
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		body, _ := io.ReadAll(resp.Body)
		return &StorageError{Path: path, Status: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	}

	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Object uploaded")
	return nil
}
