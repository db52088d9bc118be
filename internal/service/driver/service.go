package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// Service manages driver availability and the position stream.
type Service struct {
	users     UserRepo
	locations LocationRepo
	rides     RideRepo
	geo       GeoIndex
	notifier  Notifier
	l         logger.Logger

	now func() time.Time
}

func New(users UserRepo, locations LocationRepo, rides RideRepo, geo GeoIndex, notifier Notifier, l logger.Logger) *Service {
	return &Service{
		users:     users,
		locations: locations,
		rides:     rides,
		geo:       geo,
		notifier:  notifier,
		l:         l,
		now:       time.Now,
	}
}

// GoOnline makes the driver dispatchable at the given position.
func (s *Service) GoOnline(ctx context.Context, driverID uuid.UUID, lat, lng float64) error {
	ctx = wrap.WithAction(ctx, "driver_go_online")

	if err := s.users.SetDriverStatus(ctx, driverID, types.StatusDriverOnline); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.geo.Update(ctx, driverID, lat, lng); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to add driver to geo index: %w", err))
	}

	s.recordPosition(ctx, driverID, lat, lng)
	return nil
}

// GoOffline takes the driver out of dispatch. A driver on an active ride
// cannot go offline.
func (s *Service) GoOffline(ctx context.Context, driverID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, "driver_go_offline")

	active, err := s.rides.FindActiveByUser(ctx, driverID)
	if err != nil && !errors.Is(err, types.ErrRideNotFound) {
		return wrap.Error(ctx, err)
	}
	if active != nil {
		return wrap.Error(ctx, types.ErrActiveRideExists)
	}

	if err := s.users.SetDriverStatus(ctx, driverID, types.StatusDriverOffline); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.geo.Remove(ctx, driverID); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to remove driver from geo index: %w", err))
	}
	return nil
}

// UpdateLocation records a position report, refreshes the geo index and
// relays the position to the customer of the driver's active ride.
func (s *Service) UpdateLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) error {
	ctx = wrap.WithAction(ctx, "driver_update_location")

	if err := s.users.UpdatePosition(ctx, driverID, lat, lng); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.geo.Update(ctx, driverID, lat, lng); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to refresh geo index: %w", err))
	}

	s.recordPosition(ctx, driverID, lat, lng)

	active, err := s.rides.FindActiveByUser(ctx, driverID)
	if err != nil {
		if errors.Is(err, types.ErrRideNotFound) {
			return nil
		}
		return wrap.Error(ctx, err)
	}

	s.notifier.NotifyUser(ctx, active.CustomerID, models.NewEvent(
		models.EventLocationUpdate, active.ID, models.LocationUpdateData{
			UserID:    driverID,
			Latitude:  lat,
			Longitude: lng,
		}))
	return nil
}

// PurgeStaleLocations drops position reports older than retention.
func (s *Service) PurgeStaleLocations(ctx context.Context, retention time.Duration) (int, error) {
	ctx = wrap.WithAction(ctx, "purge_stale_locations")

	n, err := s.locations.PurgeOlderThan(ctx, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}
	return n, nil
}

func (s *Service) recordPosition(ctx context.Context, driverID uuid.UUID, lat, lng float64) {
	loc := &models.DriverLocation{
		ID:         uuid.MustNew(),
		DriverID:   driverID,
		Latitude:   lat,
		Longitude:  lng,
		RecordedAt: s.now().UTC(),
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		s.l.Warn(ctx, "failed to record driver position", "error", err.Error())
	}
}
