package assets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptyPath indicates a storage path that is empty after trimming.
var ErrEmptyPath = errors.New("empty storage path")

// Resolver builds public retrieval URLs for objects in the photo bucket.
//
// The stored path is treated as the complete object key: no directory prefix
// is ever added or stripped, and the key is encoded as a single path
// component, so a key like "photos/e1/x.jpg" appears in the URL as
// "photos%2Fe1%2Fx.jpg". Resolution is deterministic.
type Resolver struct {
	baseURL string
	bucket  string
}

// NewResolver creates a resolver for the given backend base URL and bucket.
func NewResolver(baseURL, bucket string) (*Resolver, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is not configured")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", baseURL)
	}
	if bucket == "" {
		return nil, errors.New("storage bucket is not configured")
	}
	return &Resolver{baseURL: baseURL, bucket: bucket}, nil
}

// Resolve returns the public URL for the object stored at path.
func (r *Resolver) Resolve(path string) (string, error) {
	key := strings.TrimSpace(path)
	if key == "" {
		return "", ErrEmptyPath
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		r.baseURL, r.bucket, url.PathEscape(key)), nil
}

// Bucket returns the configured bucket name.
func (r *Resolver) Bucket() string {
	return r.bucket
}
