package models

import (
	"time"

	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// Notification is a persisted copy of a message to a user, so offline users
// can catch up on what happened to their rides.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	RideID    *uuid.UUID             `json:"ride_id,omitempty"`
	Kind      types.NotificationKind `json:"kind"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}
