package models

import (
	"errors"

	"clubcam-sync/internal/decode"
)

// User represents an authenticated account. Profile fields beyond the id and
// email are optional and filled in only when the backend returns them.
type User struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Validate implements decode.Validator.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user: missing id")
	}
	return nil
}

// Event represents a row in the events table. The id is server-assigned:
// inserts omit it and read it back from the returned representation.
type Event struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Location    string      `json:"location"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	StartTime   decode.Time `json:"start_time"`
	EndTime     decode.Time `json:"end_time"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   decode.Time `json:"created_at"`
	UpdatedAt   decode.Time `json:"updated_at"`
}

// Validate implements decode.Validator.
func (e Event) Validate() error {
	switch {
	case e.ID == "":
		return errors.New("event: missing id")
	case e.Name == "":
		return errors.New("event: missing name")
	case e.Location == "":
		return errors.New("event: missing location")
	case e.CreatedBy == "":
		return errors.New("event: missing created_by")
	case e.StartTime.IsZero():
		return errors.New("event: missing start_time")
	case e.EndTime.IsZero():
		return errors.New("event: missing end_time")
	}
	return nil
}

// EventParticipant is the join record between a user and an event. At most
// one exists per (event_id, user_id) pair; the backend enforces this with a
// unique index.
type EventParticipant struct {
	ID       string      `json:"id"`
	EventID  string      `json:"event_id"`
	UserID   string      `json:"user_id"`
	JoinedAt decode.Time `json:"joined_at"`
}

// Validate implements decode.Validator.
func (p EventParticipant) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("participant: missing id")
	case p.EventID == "":
		return errors.New("participant: missing event_id")
	case p.UserID == "":
		return errors.New("participant: missing user_id")
	}
	return nil
}

// Photo represents a row in the photos table. StoragePath is the object key
// in the photo bucket and is immutable once the row exists. PublicURL is
// derived from StoragePath on the way out of the gateway and is never
// persisted.
type Photo struct {
	ID          string      `json:"id"`
	EventID     string      `json:"event_id"`
	UserID      string      `json:"user_id"`
	StoragePath string      `json:"storage_path"`
	Caption     *string     `json:"caption,omitempty"`
	TakenAt     decode.Time `json:"taken_at"`
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
	CreatedAt   decode.Time `json:"created_at"`

	PublicURL string `json:"-"`
}

// Validate implements decode.Validator.
func (p Photo) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("photo: missing id")
	case p.EventID == "":
		return errors.New("photo: missing event_id")
	case p.UserID == "":
		return errors.New("photo: missing user_id")
	case p.StoragePath == "":
		return errors.New("photo: missing storage_path")
	case p.TakenAt.IsZero():
		return errors.New("photo: missing taken_at")
	}
	return nil
}
