package handler

import (
	"context"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type AuthService interface {
	Register(ctx context.Context, fullName, email, password, phone string, role types.UserRole) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type RideService interface {
	Create(ctx context.Context, customerID uuid.UUID, pickup, dropoff models.Location, notes *string) (*models.Ride, error)
	Accept(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	DriverArrived(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Start(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Complete(ctx context.Context, rideID, driverID uuid.UUID, distanceKm float64, durationMinutes int) (*models.Ride, error)
	Cancel(ctx context.Context, rideID, byUserID uuid.UUID, reason string) (*models.Ride, error)
	Get(ctx context.Context, rideID, userID uuid.UUID) (*models.Ride, error)
	ActiveFor(ctx context.Context, userID uuid.UUID) (*models.Ride, error)
	History(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Ride, models.Metadata, error)
}

type DispatchService interface {
	Respond(ctx context.Context, requestID, driverID uuid.UUID, accepted bool) (*models.RideRequest, error)
	PendingFor(ctx context.Context, driverID uuid.UUID) ([]*models.RideRequest, error)
}

type DriverService interface {
	GoOnline(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
	GoOffline(ctx context.Context, driverID uuid.UUID) error
	UpdateLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
}

type NotificationService interface {
	ListByUser(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Notification, models.Metadata, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type RatingService interface {
	Rate(ctx context.Context, raterID, rideID uuid.UUID, score int, comment *string) (*models.Rating, error)
	ListByRatee(ctx context.Context, rateeID uuid.UUID, filters models.Filters) ([]*models.Rating, models.Metadata, error)
}

type PaymentService interface {
	FindByRide(ctx context.Context, rideID uuid.UUID) (*models.Payment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status types.PaymentStatus, method types.PaymentMethod) error
}
