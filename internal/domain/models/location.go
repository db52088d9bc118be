package models

import (
	"time"

	"github.com/wasselni/ridehail/pkg/uuid"
)

// DriverLocation is a timestamped position report kept for the active map
// and a short trail. Old rows are purged periodically.
type DriverLocation struct {
	ID         uuid.UUID `json:"id"`
	DriverID   uuid.UUID `json:"driver_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NearbyDriver is a search hit from the geo index.
type NearbyDriver struct {
	DriverID   uuid.UUID `json:"driver_id"`
	DistanceKm float64   `json:"distance_km"`
}
