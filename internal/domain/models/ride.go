package models

import (
	"time"

	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// Location is a point on the map, optionally annotated with an address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Ride is the central entity: one customer transport request tracked through
// a fixed lifecycle. A ride is never deleted; it moves to a terminal status
// and is retained for history, rating and payment.
type Ride struct {
	ID         uuid.UUID        `json:"id"`
	CustomerID uuid.UUID        `json:"customer_id"`
	DriverID   *uuid.UUID       `json:"driver_id,omitempty"` // nil until accepted, immutable afterwards
	Status     types.RideStatus `json:"status"`

	Pickup  Location `json:"pickup"`
	Dropoff Location `json:"dropoff"`

	// Set at completion from the actual trip.
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`

	EstimatedFare float64  `json:"estimated_fare"`
	ActualFare    *float64 `json:"actual_fare,omitempty"`

	CancellationReason *string `json:"cancellation_reason,omitempty"`
	Notes              *string `json:"notes,omitempty"`

	// Each timestamp is written exactly once, on its matching transition.
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	ArrivedAt   *time.Time `json:"arrived_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// IsActive reports whether the ride is in a non-terminal status.
func (r *Ride) IsActive() bool {
	return !r.Status.IsTerminal()
}
