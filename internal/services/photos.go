package services

import (
	"context"
	"fmt"
	"time"

	"clubcam-sync/internal/decode"
	"clubcam-sync/internal/gateway"
	"clubcam-sync/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func newID() string {
	return uuid.New().String()
}

// PhotoService handles photo upload and browsing for events.
type PhotoService struct {
	gw *gateway.Gateway
}

// NewPhotoService creates a new photo service.
func NewPhotoService(gw *gateway.Gateway) *PhotoService {
	return &PhotoService{gw: gw}
}

// UploadOptions are the optional fields of a new photo.
type UploadOptions struct {
	Caption   *string
	TakenAt   time.Time
	Latitude  *float64
	Longitude *float64
}

// Upload stores a JPEG blob for the event and creates its photo record. The
// id and storage path are generated here, before any network round trip; the
// blob goes up first, then the row. If the row insert fails after the blob
// is stored, the blob is left behind unreferenced — the orphan path is
// logged so a server-side sweep can reclaim it.
func (s *PhotoService) Upload(ctx context.Context, eventID string, jpeg []byte, opts UploadOptions) (models.Photo, error) {
	session, err := s.gw.Session()
	if err != nil {
		return models.Photo{}, err
	}
	if len(jpeg) == 0 {
		return models.Photo{}, fmt.Errorf("%w: empty image data", ErrInvalidInput)
	}

	photoID := newID()
	storagePath := fmt.Sprintf("photos/%s/%s.jpg", eventID, photoID)

	if err := s.gw.UploadObject(ctx, storagePath, jpeg, "image/jpeg"); err != nil {
		return models.Photo{}, fmt.Errorf("failed to upload photo blob: %w", err)
	}

	takenAt := opts.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	photo := models.Photo{
		ID:          photoID,
		EventID:     eventID,
		UserID:      session.UserID,
		StoragePath: storagePath,
		Caption:     opts.Caption,
		TakenAt:     decode.NewTime(takenAt),
		Latitude:    opts.Latitude,
		Longitude:   opts.Longitude,
		CreatedAt:   decode.NewTime(time.Now()),
	}

	created, err := s.gw.InsertPhoto(ctx, photo)
	if err != nil {
		log.Warn().
			Str("storage_path", storagePath).
			Str("event_id", eventID).
			Msg("Photo record insert failed after blob upload, blob is orphaned")
		return models.Photo{}, fmt.Errorf("failed to create photo record: %w", err)
	}

	log.Info().
		Str("photo_id", created.ID).
		Str("event_id", eventID).
		Int("bytes", len(jpeg)).
		Msg("Photo uploaded")

	return created, nil
}

// ByEvent returns the event's photos, newest capture first, with public
// URLs resolved.
func (s *PhotoService) ByEvent(ctx context.Context, eventID string) ([]models.Photo, error) {
	photos, err := s.gw.PhotosByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event photos: %w", err)
	}
	return photos, nil
}
