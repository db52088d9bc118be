package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/internal/service/pricing"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/metrics"
	"github.com/wasselni/ridehail/pkg/trm"
	"github.com/wasselni/ridehail/pkg/uuid"
)

/*
Service orchestrates the ride lifecycle: creating rides, applying status
transitions, pricing completed trips and fanning results out to the parties.

All transitions on a given ride are serialized by a per-ride lock and applied
inside a transaction, so the status check and the write are atomic. Fan-out
happens only after the transaction commits.
*/
type Service struct {
	repos      repos
	dispatcher Dispatcher
	notifier   Notifier
	publisher  Publisher
	fares      FareCalculator
	trm        trm.TxManager
	l          logger.Logger

	locks *keyMutex
	now   func() time.Time
}

type repos struct {
	ride    RideRepo
	user    UserRepo
	payment PaymentRepo
}

func New(rideRepo RideRepo, userRepo UserRepo, paymentRepo PaymentRepo, dispatcher Dispatcher, notifier Notifier, publisher Publisher, fares FareCalculator, trm trm.TxManager, l logger.Logger) *Service {
	return &Service{
		repos: repos{
			ride:    rideRepo,
			user:    userRepo,
			payment: paymentRepo,
		},
		dispatcher: dispatcher,
		notifier:   notifier,
		publisher:  publisher,
		fares:      fares,
		trm:        trm,
		l:          l,
		locks:      newKeyMutex(),
		now:        time.Now,
	}
}

// Create registers a new ride for the customer and offers it to nearby
// drivers. A customer may have at most one active ride.
func (s *Service) Create(ctx context.Context, customerID uuid.UUID, pickup, dropoff models.Location, notes *string) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "create_ride")

	var created *models.Ride

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		active, err := s.repos.ride.FindActiveByUser(ctx, customerID)
		if err != nil && !errors.Is(err, types.ErrRideNotFound) {
			return wrap.Error(ctx, fmt.Errorf("failed to check active ride: %w", err))
		}
		if active != nil {
			return wrap.Error(ctx, types.ErrActiveRideExists)
		}

		now := s.now().UTC()
		distance := pricing.Distance(pickup, dropoff)
		duration := pricing.EstimateDuration(distance)

		created = &models.Ride{
			ID:            uuid.MustNew(),
			CustomerID:    customerID,
			Status:        types.StatusRequested,
			Pickup:        pickup,
			Dropoff:       dropoff,
			EstimatedFare: s.fares.Fare(distance, duration, now),
			Notes:         notes,
			CreatedAt:     now,
		}

		if err := s.repos.ride.Create(ctx, created); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to create ride: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(types.StatusRequested.String()).Inc()
	metrics.ActiveRidesGauge.Inc()

	ctx = wrap.WithRideID(ctx, created.ID.String())

	// Offer the ride to drivers after the ride is durable. A broadcast that
	// finds nobody leaves the ride REQUESTED so a later retry can pick it up.
	sent, err := s.dispatcher.Broadcast(ctx, created)
	if err != nil {
		if errors.Is(err, types.ErrNoDriversAvailable) {
			s.l.Warn(ctx, "no drivers available for new ride")
		} else {
			s.l.Error(ctx, "failed to broadcast ride to drivers", err)
		}
	} else {
		s.l.Info(ctx, "ride offered to drivers", "drivers", sent)
	}

	s.publishEvent(ctx, models.NewEvent(models.EventRideRequest, created.ID, nil))

	return created, nil
}

// Accept assigns the ride to the driver. Exactly one driver wins: the
// status check and the assignment happen under the per-ride lock inside
// one transaction, so a concurrent accept observes ACCEPTED and fails
// with ErrRideAlreadyTaken.
func (s *Service) Accept(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "accept_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	var (
		accepted *models.Ride
		driver   *models.User
	)

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.repos.ride.FindByID(ctx, rideID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if ride.DriverID != nil {
			return wrap.Error(ctx, types.ErrRideAlreadyTaken)
		}
		if err := CheckTransition(ride.Status, types.StatusAccepted); err != nil {
			return wrap.Error(ctx, err)
		}

		busy, err := s.repos.ride.FindActiveByUser(ctx, driverID)
		if err != nil && !errors.Is(err, types.ErrRideNotFound) {
			return wrap.Error(ctx, fmt.Errorf("failed to check driver active ride: %w", err))
		}
		if busy != nil {
			return wrap.Error(ctx, types.ErrActiveRideExists)
		}

		driver, err = s.repos.user.FindByID(ctx, driverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		now := s.now().UTC()
		ride.Status = types.StatusAccepted
		ride.DriverID = &driverID
		ride.AcceptedAt = &now

		if err := s.repos.ride.Update(ctx, ride); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to update ride: %w", err))
		}
		if err := s.repos.user.SetDriverStatus(ctx, driverID, types.StatusDriverBusy); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to set driver busy: %w", err))
		}

		accepted = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(types.StatusAccepted.String()).Inc()
	metrics.RideOffersTotal.WithLabelValues("accepted").Inc()

	// The losing offers are now moot.
	if err := s.dispatcher.CloseOpenRequests(ctx, rideID); err != nil {
		s.l.Warn(ctx, "failed to close open ride requests", "error", err.Error())
	}

	s.notifier.NotifyUser(ctx, accepted.CustomerID, models.NewEvent(
		models.EventRideAccepted, rideID, models.RideAcceptedData{
			DriverID:     driverID,
			DriverName:   driver.FullName,
			DriverRating: driver.Rating,
		}))
	s.publishEvent(ctx, models.NewEvent(models.EventRideAccepted, rideID, nil))

	return accepted, nil
}

// DriverArrived marks the driver as waiting at the pickup point.
func (s *Service) DriverArrived(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "driver_arrived")

	ride, err := s.transition(ctx, rideID, driverID, types.StatusArrived, func(ride *models.Ride, now time.Time) {
		ride.ArrivedAt = &now
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, ride.CustomerID, models.NewEvent(models.EventDriverArrived, rideID, nil))
	s.publishEvent(ctx, models.NewEvent(models.EventDriverArrived, rideID, nil))

	return ride, nil
}

// Start begins the trip once the customer is on board.
func (s *Service) Start(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "start_trip")

	ride, err := s.transition(ctx, rideID, driverID, types.StatusInProgress, func(ride *models.Ride, now time.Time) {
		ride.StartedAt = &now
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, ride.CustomerID, models.NewEvent(models.EventTripStarted, rideID, nil))
	s.publishEvent(ctx, models.NewEvent(models.EventTripStarted, rideID, nil))

	return ride, nil
}

// Complete finishes the trip, prices it from the actual distance and
// duration, and opens a pending payment. Peak pricing is decided by the
// time the ride was created, not the time it ended.
func (s *Service) Complete(ctx context.Context, rideID, driverID uuid.UUID, distanceKm float64, durationMinutes int) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "complete_trip")
	ctx = wrap.WithRideID(ctx, rideID.String())

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	var completed *models.Ride

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.repos.ride.FindByID(ctx, rideID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if ride.DriverID == nil || *ride.DriverID != driverID {
			return wrap.Error(ctx, types.ErrRideNotFound)
		}
		if err := CheckTransition(ride.Status, types.StatusCompleted); err != nil {
			return wrap.Error(ctx, err)
		}

		now := s.now().UTC()
		fare := s.fares.Fare(distanceKm, durationMinutes, ride.CreatedAt)

		ride.Status = types.StatusCompleted
		ride.DistanceKm = &distanceKm
		ride.DurationMinutes = &durationMinutes
		ride.ActualFare = &fare
		ride.CompletedAt = &now

		if err := s.repos.ride.Update(ctx, ride); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to update ride: %w", err))
		}
		if err := s.repos.user.SetDriverStatus(ctx, driverID, types.StatusDriverOnline); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to free driver: %w", err))
		}

		payment := &models.Payment{
			ID:         uuid.MustNew(),
			RideID:     ride.ID,
			CustomerID: ride.CustomerID,
			Amount:     fare,
			Method:     types.PaymentCash,
			Status:     types.PaymentPending,
			CreatedAt:  now,
		}
		if err := s.repos.payment.Create(ctx, payment); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to create payment: %w", err))
		}

		completed = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(types.StatusCompleted.String()).Inc()
	metrics.ActiveRidesGauge.Dec()

	data := models.TripCompletedData{
		ActualFare:      *completed.ActualFare,
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
	}
	s.notifier.NotifyUser(ctx, completed.CustomerID, models.NewEvent(models.EventTripCompleted, rideID, data))
	s.notifier.NotifyUser(ctx, driverID, models.NewEvent(models.EventTripCompleted, rideID, data))
	s.publishEvent(ctx, models.NewEvent(models.EventTripCompleted, rideID, data))

	return completed, nil
}

// Cancel aborts a ride. Only the customer or the assigned driver may cancel,
// and cancellation succeeds from any non-terminal status; a completed or
// already-cancelled ride cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, rideID, byUserID uuid.UUID, reason string) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "cancel_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	var cancelled *models.Ride

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.repos.ride.FindByID(ctx, rideID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		party := ride.CustomerID == byUserID ||
			(ride.DriverID != nil && *ride.DriverID == byUserID)
		if !party {
			return wrap.Error(ctx, types.ErrRideNotFound)
		}
		if err := CheckTransition(ride.Status, types.StatusCancelled); err != nil {
			return wrap.Error(ctx, err)
		}

		now := s.now().UTC()
		ride.Status = types.StatusCancelled
		ride.CancellationReason = &reason
		ride.CancelledAt = &now

		if err := s.repos.ride.Update(ctx, ride); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to update ride: %w", err))
		}
		if ride.DriverID != nil {
			if err := s.repos.user.SetDriverStatus(ctx, *ride.DriverID, types.StatusDriverOnline); err != nil {
				return wrap.Error(ctx, fmt.Errorf("failed to free driver: %w", err))
			}
		}

		cancelled = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(types.StatusCancelled.String()).Inc()
	metrics.ActiveRidesGauge.Dec()

	if err := s.dispatcher.CloseOpenRequests(ctx, rideID); err != nil {
		s.l.Warn(ctx, "failed to close open ride requests", "error", err.Error())
	}

	data := models.RideCancelledData{CancelledBy: byUserID, Reason: reason}
	ev := models.NewEvent(models.EventRideCancelled, rideID, data)
	if cancelled.CustomerID != byUserID {
		s.notifier.NotifyUser(ctx, cancelled.CustomerID, ev)
	}
	if cancelled.DriverID != nil && *cancelled.DriverID != byUserID {
		s.notifier.NotifyUser(ctx, *cancelled.DriverID, ev)
	}
	s.publishEvent(ctx, ev)

	return cancelled, nil
}

// Get returns a ride the user participates in.
func (s *Service) Get(ctx context.Context, rideID, userID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repos.ride.FindByID(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	party := ride.CustomerID == userID ||
		(ride.DriverID != nil && *ride.DriverID == userID)
	if !party {
		return nil, wrap.Error(ctx, types.ErrRideNotFound)
	}
	return ride, nil
}

// ActiveFor returns the user's current non-terminal ride, if any.
func (s *Service) ActiveFor(ctx context.Context, userID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repos.ride.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ride, nil
}

// History returns the user's past rides, newest first by default.
func (s *Service) History(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Ride, models.Metadata, error) {
	rides, meta, err := s.repos.ride.ListByUser(ctx, userID, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return rides, meta, nil
}

// transition applies a driver-initiated lifecycle step that needs no extra
// side effects beyond the status and its timestamp.
func (s *Service) transition(ctx context.Context, rideID, driverID uuid.UUID, to types.RideStatus, apply func(*models.Ride, time.Time)) (*models.Ride, error) {
	ctx = wrap.WithRideID(ctx, rideID.String())

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	var updated *models.Ride

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.repos.ride.FindByID(ctx, rideID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if ride.DriverID == nil || *ride.DriverID != driverID {
			return wrap.Error(ctx, types.ErrRideNotFound)
		}
		if err := CheckTransition(ride.Status, to); err != nil {
			return wrap.Error(ctx, err)
		}

		ride.Status = to
		apply(ride, s.now().UTC())

		if err := s.repos.ride.Update(ctx, ride); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to update ride: %w", err))
		}

		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(to.String()).Inc()

	return updated, nil
}

func (s *Service) publishEvent(ctx context.Context, ev models.Event) {
	if err := s.publisher.PublishRideEvent(ctx, ev); err != nil {
		s.l.Warn(ctx, "failed to publish ride event", "kind", ev.Kind, "error", err.Error())
	}
}
