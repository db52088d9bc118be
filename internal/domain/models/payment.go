package models

import (
	"time"

	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// Payment settles a completed ride. One payment per ride.
type Payment struct {
	ID         uuid.UUID           `json:"id"`
	RideID     uuid.UUID           `json:"ride_id"`
	CustomerID uuid.UUID           `json:"customer_id"`
	Amount     float64             `json:"amount"`
	Method     types.PaymentMethod `json:"method"`
	Status     types.PaymentStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	PaidAt     *time.Time          `json:"paid_at,omitempty"`
}
