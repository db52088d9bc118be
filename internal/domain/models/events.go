package models

import (
	"time"

	"github.com/wasselni/ridehail/pkg/uuid"
)

// Event kinds sent over the realtime channel. Clients switch on the kind
// string, so these values are part of the wire contract.
const (
	EventRideRequest      = "ride_request"
	EventRideAccepted     = "ride_accepted"
	EventDriverArrived    = "driver_arrived"
	EventTripStarted      = "trip_started"
	EventTripCompleted    = "trip_completed"
	EventRideCancelled    = "ride_cancelled"
	EventLocationUpdate   = "location_update"
	EventConnectionStatus = "connection_status"
	EventError            = "error"
)

// Event is the envelope for every realtime message pushed to clients.
// Data holds the kind-specific payload.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	RideID    uuid.UUID `json:"ride_id,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// RideOfferData is the payload of a ride_request event sent to a driver.
type RideOfferData struct {
	RequestID     uuid.UUID `json:"request_id"`
	Pickup        Location  `json:"pickup"`
	Dropoff       Location  `json:"dropoff"`
	EstimatedFare float64   `json:"estimated_fare"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// RideAcceptedData tells the customer who is coming.
type RideAcceptedData struct {
	DriverID     uuid.UUID `json:"driver_id"`
	DriverName   string    `json:"driver_name"`
	DriverRating *float64  `json:"driver_rating,omitempty"`
}

// TripCompletedData closes the loop with the final fare.
type TripCompletedData struct {
	ActualFare      float64 `json:"actual_fare"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

// RideCancelledData carries who cancelled and why.
type RideCancelledData struct {
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason,omitempty"`
}

// LocationUpdateData is a position report relayed to the ride counterparty.
type LocationUpdateData struct {
	UserID    uuid.UUID `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// ConnectionStatusData acknowledges a websocket session.
type ConnectionStatusData struct {
	Status string `json:"status"`
}

// ErrorData reports a rejected client command.
type ErrorData struct {
	Message string `json:"message"`
}

// NewEvent builds an envelope with the timestamp set.
func NewEvent(kind string, rideID uuid.UUID, data any) Event {
	return Event{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		RideID:    rideID,
		Data:      data,
	}
}
