package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

const rideColumns = `
	id, customer_id, driver_id, status,
	pickup_lat, pickup_lng, pickup_address,
	dropoff_lat, dropoff_lng, dropoff_address,
	distance_km, duration_minutes, estimated_fare, actual_fare,
	cancellation_reason, notes,
	created_at, accepted_at, arrived_at, started_at, completed_at, cancelled_at`

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO rides (
			id, customer_id, status,
			pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address,
			estimated_fare, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := q.Exec(ctx, query,
		ride.ID, ride.CustomerID, ride.Status,
		ride.Pickup.Latitude, ride.Pickup.Longitude, ride.Pickup.Address,
		ride.Dropoff.Latitude, ride.Dropoff.Longitude, ride.Dropoff.Address,
		ride.EstimatedFare, ride.Notes, ride.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ride repo: Create: %w", err)
	}
	return nil
}

func (r *RideRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT` + rideColumns + `FROM rides WHERE id = $1;`

	ride, err := scanRide(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("ride repo: FindByID: %w", err)
	}
	return ride, nil
}

func (r *RideRepo) Update(ctx context.Context, ride *models.Ride) error {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE rides
		SET
			status = $2,
			driver_id = $3,
			distance_km = $4,
			duration_minutes = $5,
			actual_fare = $6,
			cancellation_reason = $7,
			accepted_at = $8,
			arrived_at = $9,
			started_at = $10,
			completed_at = $11,
			cancelled_at = $12,
			updated_at = now()
		WHERE id = $1;`

	cmdTag, err := q.Exec(ctx, query,
		ride.ID,
		ride.Status,
		ride.DriverID,
		ride.DistanceKm,
		ride.DurationMinutes,
		ride.ActualFare,
		ride.CancellationReason,
		ride.AcceptedAt,
		ride.ArrivedAt,
		ride.StartedAt,
		ride.CompletedAt,
		ride.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("ride repo: Update: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrRideNotFound
	}
	return nil
}

// FindActiveByUser returns the user's current non-terminal ride, as customer
// or as driver. At most one can exist per user.
func (r *RideRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT` + rideColumns + `
		FROM rides
		WHERE (customer_id = $1 OR driver_id = $1)
		  AND status NOT IN ('COMPLETED', 'CANCELLED')
		LIMIT 1;`

	ride, err := scanRide(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("ride repo: FindActiveByUser: %w", err)
	}
	return ride, nil
}

func (r *RideRepo) ListByUser(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Ride, models.Metadata, error) {
	q := TxorDB(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT count(*) OVER(),`+rideColumns+`
		FROM rides
		WHERE customer_id = $1 OR driver_id = $1
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3;`, filters.SortColumn(), filters.SortDirection())

	rows, err := q.Query(ctx, query, userID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("ride repo: ListByUser: %w", err)
	}
	defer rows.Close()

	var (
		total int
		rides []*models.Ride
	)
	for rows.Next() {
		var ride models.Ride
		if err := rows.Scan(
			&total,
			&ride.ID, &ride.CustomerID, &ride.DriverID, &ride.Status,
			&ride.Pickup.Latitude, &ride.Pickup.Longitude, &ride.Pickup.Address,
			&ride.Dropoff.Latitude, &ride.Dropoff.Longitude, &ride.Dropoff.Address,
			&ride.DistanceKm, &ride.DurationMinutes, &ride.EstimatedFare, &ride.ActualFare,
			&ride.CancellationReason, &ride.Notes,
			&ride.CreatedAt, &ride.AcceptedAt, &ride.ArrivedAt, &ride.StartedAt, &ride.CompletedAt, &ride.CancelledAt,
		); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("ride repo: ListByUser scan: %w", err)
		}
		rides = append(rides, &ride)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("ride repo: ListByUser rows: %w", err)
	}

	meta := models.CalculateMetadata(total, filters.Page, filters.PageSize)
	return rides, meta, nil
}

func scanRide(row pgx.Row) (*models.Ride, error) {
	var ride models.Ride
	err := row.Scan(
		&ride.ID, &ride.CustomerID, &ride.DriverID, &ride.Status,
		&ride.Pickup.Latitude, &ride.Pickup.Longitude, &ride.Pickup.Address,
		&ride.Dropoff.Latitude, &ride.Dropoff.Longitude, &ride.Dropoff.Address,
		&ride.DistanceKm, &ride.DurationMinutes, &ride.EstimatedFare, &ride.ActualFare,
		&ride.CancellationReason, &ride.Notes,
		&ride.CreatedAt, &ride.AcceptedAt, &ride.ArrivedAt, &ride.StartedAt, &ride.CompletedAt, &ride.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}
