package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoSession indicates an operation that requires an authenticated session
// when none is held (or the held token has expired).
var ErrNoSession = errors.New("no active session")

// AuthError wraps a failure from the auth endpoint.
type AuthError struct {
	Op     string
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s failed (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ReadError wraps a failed row-store or RPC read.
type ReadError struct {
	Op     string
	Status int
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s failed (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failed row insert. Status carries the HTTP status so
// callers can distinguish unique-constraint conflicts from transient faults.
type WriteError struct {
	Op     string
	Status int
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s failed (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Conflict reports whether the write was rejected by a uniqueness
// constraint.
func (e *WriteError) Conflict() bool { return e.Status == http.StatusConflict }

// StorageError wraps a failed object upload.
type StorageError struct {
	Path   string
	Status int
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage upload of %q failed (status %d): %v", e.Path, e.Status, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func statusError(status int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Errorf("unexpected status %d: %s", status, msg)
}
