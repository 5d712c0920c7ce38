package services

import "context"

// Coordinates is a geographic position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationProvider supplies the device's current position. Platform location
// services live outside this module; anything that can produce coordinates
// can back the nearby-events fetch. The second return reports whether a
// position is known.
type LocationProvider interface {
	Current(ctx context.Context) (Coordinates, bool)
}

// StaticLocation is a LocationProvider pinned to fixed coordinates, useful
// as a fallback when no live position source is available.
type StaticLocation Coordinates

// Current implements LocationProvider.
func (s StaticLocation) Current(_ context.Context) (Coordinates, bool) {
	return Coordinates(s), true
}

// NoLocation is a LocationProvider that never has a position.
type NoLocation struct{}

// Current implements LocationProvider.
func (NoLocation) Current(_ context.Context) (Coordinates, bool) {
	return Coordinates{}, false
}
