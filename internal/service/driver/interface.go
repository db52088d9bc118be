package driver

import (
	"context"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetDriverStatus(ctx context.Context, driverID uuid.UUID, status types.DriverStatus) error
	UpdatePosition(ctx context.Context, userID uuid.UUID, lat, lng float64) error
}

type LocationRepo interface {
	Create(ctx context.Context, loc *models.DriverLocation) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type RideRepo interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Ride, error)
}

// GeoIndex keeps the dispatchable driver set current.
type GeoIndex interface {
	Update(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
	Remove(ctx context.Context, driverID uuid.UUID) error
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, ev models.Event)
}
