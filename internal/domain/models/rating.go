package models

import (
	"time"

	"github.com/wasselni/ridehail/pkg/uuid"
)

// Rating is a post-ride score from one party about the other.
// Score is 1..5, one rating per (ride, rater).
type Rating struct {
	ID        uuid.UUID `json:"id"`
	RideID    uuid.UUID `json:"ride_id"`
	RaterID   uuid.UUID `json:"rater_id"`
	RateeID   uuid.UUID `json:"ratee_id"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
