package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/trm"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type RatingRepo interface {
	Create(ctx context.Context, rating *models.Rating) error
	ListByRatee(ctx context.Context, rateeID uuid.UUID, filters models.Filters) ([]*models.Rating, models.Metadata, error)
}

type RideRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
}

type UserRepo interface {
	ApplyRating(ctx context.Context, rateeID uuid.UUID) error
}

// Service lets the two parties of a completed ride score each other.
type Service struct {
	ratings RatingRepo
	rides   RideRepo
	users   UserRepo
	trm     trm.TxManager
	l       logger.Logger

	now func() time.Time
}

func New(ratings RatingRepo, rides RideRepo, users UserRepo, trm trm.TxManager, l logger.Logger) *Service {
	return &Service{
		ratings: ratings,
		rides:   rides,
		users:   users,
		trm:     trm,
		l:       l,
		now:     time.Now,
	}
}

// Rate records a score from one ride party about the other. Only completed
// rides can be rated, once per rater.
func (s *Service) Rate(ctx context.Context, raterID, rideID uuid.UUID, score int, comment *string) (*models.Rating, error) {
	ctx = wrap.WithAction(ctx, "rate_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	var rating *models.Rating

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.rides.FindByID(ctx, rideID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if ride.Status != types.StatusCompleted || ride.DriverID == nil {
			return wrap.Error(ctx, types.ErrInvalidTransition)
		}

		var rateeID uuid.UUID
		switch raterID {
		case ride.CustomerID:
			rateeID = *ride.DriverID
		case *ride.DriverID:
			rateeID = ride.CustomerID
		default:
			return wrap.Error(ctx, types.ErrRideNotFound)
		}

		rating = &models.Rating{
			ID:        uuid.MustNew(),
			RideID:    rideID,
			RaterID:   raterID,
			RateeID:   rateeID,
			Score:     score,
			Comment:   comment,
			CreatedAt: s.now().UTC(),
		}
		if err := s.ratings.Create(ctx, rating); err != nil {
			return wrap.Error(ctx, err)
		}

		if err := s.users.ApplyRating(ctx, rateeID); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to refresh aggregate rating: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rating, nil
}

func (s *Service) ListByRatee(ctx context.Context, rateeID uuid.UUID, filters models.Filters) ([]*models.Rating, models.Metadata, error) {
	ratings, meta, err := s.ratings.ListByRatee(ctx, rateeID, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return ratings, meta, nil
}
