package dispatch

import (
	"context"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type RequestRepo interface {
	Create(ctx context.Context, req *models.RideRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RideRequest, error)

	// Respond records the driver's answer iff the request is still open.
	// Returns the updated request, or ErrRequestNotFound when the request
	// does not belong to the driver, or ErrRequestAlreadyAnswered when a
	// response was already recorded.
	Respond(ctx context.Context, requestID, driverID uuid.UUID, accepted bool, at time.Time) (*models.RideRequest, error)

	// ExpireOpen marks every open request past its deadline as declined.
	// Returns the number of requests it closed.
	ExpireOpen(ctx context.Context, now time.Time) (int, error)

	// CloseForRide declines all remaining open requests for the ride.
	CloseForRide(ctx context.Context, rideID uuid.UUID, at time.Time) error

	ListOpenByDriver(ctx context.Context, driverID uuid.UUID, now time.Time) ([]*models.RideRequest, error)
}

// GeoIndex finds online drivers near a point.
type GeoIndex interface {
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error)
}

// Notifier pushes a realtime event to a user's live connections.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, ev models.Event)
}
