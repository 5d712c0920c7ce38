package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"clubcam-sync/internal/backendtest"
	"clubcam-sync/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhotoStack(t *testing.T) (*gateway.Gateway, *PhotoService, *backendtest.Backend) {
	t.Helper()
	backend := backendtest.New()
	t.Cleanup(backend.Close)

	gw, err := gateway.New(backend.Config())
	require.NoError(t, err)
	return gw, NewPhotoService(gw), backend
}

func TestUploadThenList(t *testing.T) {
	gw, svc, backend := newPhotoStack(t)
	ctx := context.Background()

	user := signUp(t, gw)

	older := []byte("an older photo")
	_, err := svc.Upload(ctx, "e1", older, UploadOptions{
		TakenAt: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	blob := bytes.Repeat([]byte{0xFF}, 1024)
	photo, err := svc.Upload(ctx, "e1", blob, UploadOptions{
		TakenAt: time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, photo.UserID)
	assert.True(t, strings.HasPrefix(photo.StoragePath, "photos/e1/"))
	assert.True(t, strings.HasSuffix(photo.StoragePath, ".jpg"))
	assert.Equal(t, fmt.Sprintf("photos/e1/%s.jpg", photo.ID), photo.StoragePath)

	stored, exists := backend.Object(photo.StoragePath)
	require.True(t, exists)
	assert.Equal(t, blob, stored)

	wantURL := fmt.Sprintf("%s/storage/v1/object/public/event-photos/photos%%2Fe1%%2F%s.jpg",
		backend.URL(), photo.ID)
	assert.Equal(t, wantURL, photo.PublicURL)

	photos, err := svc.ByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, photo.ID, photos[0].ID, "latest capture listed first")
	assert.NotEmpty(t, photos[0].PublicURL)
	assert.NotEmpty(t, photos[1].PublicURL)
}

func TestUploadRequiresSession(t *testing.T) {
	_, svc, _ := newPhotoStack(t)

	_, err := svc.Upload(context.Background(), "e1", []byte("data"), UploadOptions{})
	assert.ErrorIs(t, err, gateway.ErrNoSession)
}

func TestUploadRejectsEmptyImage(t *testing.T) {
	gw, svc, _ := newPhotoStack(t)
	signUp(t, gw)

	_, err := svc.Upload(context.Background(), "e1", nil, UploadOptions{})
	assert.Error(t, err)
}

func TestUploadOrphansBlobOnRecordFailure(t *testing.T) {
	gw, svc, backend := newPhotoStack(t)
	ctx := context.Background()

	signUp(t, gw)
	backend.FailPhotoInsert = true

	_, err := svc.Upload(ctx, "e1", []byte("doomed"), UploadOptions{})
	require.Error(t, err)

	// The blob stays behind; reclaiming it is a server-side concern.
	assert.Equal(t, 1, backend.ObjectCount())
	photos, listErr := svc.ByEvent(ctx, "e1")
	require.NoError(t, listErr)
	assert.Empty(t, photos, "no record exists for the orphaned blob")
}

func TestUploadDefaultsTakenAt(t *testing.T) {
	gw, svc, _ := newPhotoStack(t)
	signUp(t, gw)

	before := time.Now().Add(-time.Second)
	photo, err := svc.Upload(context.Background(), "e1", []byte("data"), UploadOptions{})
	require.NoError(t, err)
	assert.True(t, photo.TakenAt.After(before))
}
