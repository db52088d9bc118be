package models

import (
	"time"

	"github.com/wasselni/ridehail/pkg/uuid"
)

// RideRequest is an offer of one ride to one driver with a hard response
// deadline. Requests are kept forever as an audit trail: once answered or
// expired they become immutable.
type RideRequest struct {
	ID       uuid.UUID `json:"id"`
	RideID   uuid.UUID `json:"ride_id"`
	DriverID uuid.UUID `json:"driver_id"`

	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// Both nil while the offer is open. Accepted is tri-state:
	// nil = unanswered, true = accepted, false = declined or expired.
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	Accepted    *bool      `json:"accepted,omitempty"`
}

// Answerable reports whether the request can still receive a response at now.
func (rr *RideRequest) Answerable(now time.Time) bool {
	return rr.RespondedAt == nil && now.Before(rr.ExpiresAt)
}
