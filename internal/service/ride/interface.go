package ride

import (
	"context"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type RideRepo interface {
	Create(ctx context.Context, ride *models.Ride) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	Update(ctx context.Context, ride *models.Ride) error
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Ride, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Ride, models.Metadata, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetDriverStatus(ctx context.Context, driverID uuid.UUID, status types.DriverStatus) error
}

type PaymentRepo interface {
	Create(ctx context.Context, payment *models.Payment) error
}

// Dispatcher offers a new ride to nearby drivers and closes the remaining
// open offers once the ride is taken or cancelled.
type Dispatcher interface {
	Broadcast(ctx context.Context, ride *models.Ride) (int, error)
	CloseOpenRequests(ctx context.Context, rideID uuid.UUID) error
}

// Notifier pushes a realtime event to all of a user's live connections.
// Delivery is best effort and never returns an error.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, ev models.Event)
}

// Publisher emits ride lifecycle events to the message broker for
// downstream consumers.
type Publisher interface {
	PublishRideEvent(ctx context.Context, ev models.Event) error
}

// FareCalculator prices a trip. The time argument decides peak pricing.
type FareCalculator interface {
	Fare(distanceKm float64, durationMinutes int, at time.Time) float64
}
