package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/metrics"
	"github.com/wasselni/ridehail/pkg/trm"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// Config tunes the dispatch engine.
type Config struct {
	// SearchRadiusKm bounds the driver search around the pickup point.
	SearchRadiusKm float64
	// OfferTTL is how long a driver has to answer an offer.
	OfferTTL time.Duration
}

/*
Service is the dispatch engine. It offers new rides to every online driver
near the pickup point and collects their answers.

Each offer is a RideRequest row with a hard deadline. Answers are recorded
with a compare-and-set on responded_at, so a driver can never answer twice
and a late answer after the expiry sweep loses cleanly.
*/
type Service struct {
	requests RequestRepo
	geo      GeoIndex
	notifier Notifier
	cfg      Config
	trm      trm.TxManager
	l        logger.Logger

	now func() time.Time
}

func New(requests RequestRepo, geo GeoIndex, notifier Notifier, cfg Config, trm trm.TxManager, l logger.Logger) *Service {
	return &Service{
		requests: requests,
		geo:      geo,
		notifier: notifier,
		cfg:      cfg,
		trm:      trm,
		l:        l,
		now:      time.Now,
	}
}

// Broadcast offers the ride to every online driver within the search radius
// and returns how many offers went out. Returns ErrNoDriversAvailable when
// nobody is nearby.
func (s *Service) Broadcast(ctx context.Context, ride *models.Ride) (int, error) {
	ctx = wrap.WithAction(ctx, "broadcast_ride")
	ctx = wrap.WithRideID(ctx, ride.ID.String())

	candidates, err := s.geo.Nearby(ctx, ride.Pickup.Latitude, ride.Pickup.Longitude, s.cfg.SearchRadiusKm)
	if err != nil {
		return 0, wrap.Error(ctx, fmt.Errorf("failed to search nearby drivers: %w", err))
	}
	if len(candidates) == 0 {
		return 0, wrap.Error(ctx, types.ErrNoDriversAvailable)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.OfferTTL)
	offers := make([]*models.RideRequest, 0, len(candidates))

	err = s.trm.Do(ctx, func(ctx context.Context) error {
		for _, c := range candidates {
			req := &models.RideRequest{
				ID:        uuid.MustNew(),
				RideID:    ride.ID,
				DriverID:  c.DriverID,
				SentAt:    now,
				ExpiresAt: expiresAt,
			}
			if err := s.requests.Create(ctx, req); err != nil {
				return wrap.Error(ctx, fmt.Errorf("failed to create ride request: %w", err))
			}
			offers = append(offers, req)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Push the offers only after they are durable, so a driver never sees
	// an offer the expiry sweep does not know about.
	for _, req := range offers {
		s.notifier.NotifyUser(ctx, req.DriverID, models.NewEvent(
			models.EventRideRequest, ride.ID, models.RideOfferData{
				RequestID:     req.ID,
				Pickup:        ride.Pickup,
				Dropoff:       ride.Dropoff,
				EstimatedFare: ride.EstimatedFare,
				ExpiresAt:     req.ExpiresAt,
			}))
		metrics.RideOffersTotal.WithLabelValues("sent").Inc()
	}

	s.l.Info(ctx, "ride offers sent", "count", len(offers))
	return len(offers), nil
}

// Respond records the driver's answer to an offer. The deadline is checked
// against the current clock first; the write itself only succeeds while
// responded_at is still null, so exactly one answer ever lands.
func (s *Service) Respond(ctx context.Context, requestID, driverID uuid.UUID, accepted bool) (*models.RideRequest, error) {
	ctx = wrap.WithAction(ctx, "respond_ride_request")

	now := s.now().UTC()

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if req.DriverID != driverID {
		return nil, wrap.Error(ctx, types.ErrRequestNotFound)
	}
	// The deadline wins over the answered check: once the offer is past its
	// deadline the caller sees it as expired, whether or not the sweep has
	// already closed the row.
	if !now.Before(req.ExpiresAt) {
		return nil, wrap.Error(ctx, types.ErrRequestExpired)
	}
	if req.RespondedAt != nil {
		return nil, wrap.Error(ctx, types.ErrRequestAlreadyAnswered)
	}

	updated, err := s.requests.Respond(ctx, requestID, driverID, accepted, now)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if !accepted {
		metrics.RideOffersTotal.WithLabelValues("declined").Inc()
	}

	return updated, nil
}

// ExpireSweep closes every offer past its deadline. Running it twice is
// harmless: an already-closed offer never matches again.
func (s *Service) ExpireSweep(ctx context.Context) (int, error) {
	ctx = wrap.WithAction(ctx, "expire_ride_requests")

	n, err := s.requests.ExpireOpen(ctx, s.now().UTC())
	if err != nil {
		return 0, wrap.Error(ctx, fmt.Errorf("failed to expire ride requests: %w", err))
	}
	if n > 0 {
		metrics.RideOffersTotal.WithLabelValues("expired").Add(float64(n))
		s.l.Info(ctx, "expired ride offers", "count", n)
	}
	return n, nil
}

// CloseOpenRequests declines the remaining open offers for a ride that was
// taken or cancelled.
func (s *Service) CloseOpenRequests(ctx context.Context, rideID uuid.UUID) error {
	if err := s.requests.CloseForRide(ctx, rideID, s.now().UTC()); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to close requests for ride: %w", err))
	}
	return nil
}

// PendingFor returns the driver's open, unexpired offers, for clients
// reconnecting mid-broadcast.
func (s *Service) PendingFor(ctx context.Context, driverID uuid.UUID) ([]*models.RideRequest, error) {
	reqs, err := s.requests.ListOpenByDriver(ctx, driverID, s.now().UTC())
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return reqs, nil
}
