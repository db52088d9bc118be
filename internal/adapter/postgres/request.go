package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type RequestRepo struct {
	db *pgxpool.Pool
}

func NewRequestRepo(db *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{db: db}
}

func (r *RequestRepo) Create(ctx context.Context, req *models.RideRequest) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO ride_requests (id, ride_id, driver_id, sent_at, expires_at)
		VALUES ($1, $2, $3, $4, $5);`

	_, err := q.Exec(ctx, query, req.ID, req.RideID, req.DriverID, req.SentAt, req.ExpiresAt)
	if err != nil {
		return fmt.Errorf("request repo: Create: %w", err)
	}
	return nil
}

func (r *RequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RideRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, ride_id, driver_id, sent_at, expires_at, responded_at, accepted
		FROM ride_requests
		WHERE id = $1;`

	var req models.RideRequest
	err := q.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.RideID, &req.DriverID,
		&req.SentAt, &req.ExpiresAt, &req.RespondedAt, &req.Accepted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repo: FindByID: %w", err)
	}
	return &req, nil
}

// Respond records the driver's answer with a compare-and-set on
// responded_at. The update only lands while the request is still open, so a
// second answer or a race with the expiry sweep loses cleanly.
func (r *RequestRepo) Respond(ctx context.Context, requestID, driverID uuid.UUID, accepted bool, at time.Time) (*models.RideRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE ride_requests
		SET responded_at = $3, accepted = $4
		WHERE id = $1 AND driver_id = $2 AND responded_at IS NULL
		RETURNING id, ride_id, driver_id, sent_at, expires_at, responded_at, accepted;`

	var req models.RideRequest
	err := q.QueryRow(ctx, query, requestID, driverID, at, accepted).Scan(
		&req.ID, &req.RideID, &req.DriverID,
		&req.SentAt, &req.ExpiresAt, &req.RespondedAt, &req.Accepted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either not this driver's request, or already answered. Look
			// once more to tell the two apart.
			existing, findErr := r.FindByID(ctx, requestID)
			if findErr != nil {
				return nil, findErr
			}
			if existing.DriverID != driverID {
				return nil, types.ErrRequestNotFound
			}
			return nil, types.ErrRequestAlreadyAnswered
		}
		return nil, fmt.Errorf("request repo: Respond: %w", err)
	}
	return &req, nil
}

func (r *RequestRepo) ExpireOpen(ctx context.Context, now time.Time) (int, error) {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE ride_requests
		SET responded_at = $1, accepted = false
		WHERE responded_at IS NULL AND expires_at <= $1;`

	cmdTag, err := q.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("request repo: ExpireOpen: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

func (r *RequestRepo) CloseForRide(ctx context.Context, rideID uuid.UUID, at time.Time) error {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE ride_requests
		SET responded_at = $2, accepted = false
		WHERE ride_id = $1 AND responded_at IS NULL;`

	if _, err := q.Exec(ctx, query, rideID, at); err != nil {
		return fmt.Errorf("request repo: CloseForRide: %w", err)
	}
	return nil
}

func (r *RequestRepo) ListOpenByDriver(ctx context.Context, driverID uuid.UUID, now time.Time) ([]*models.RideRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, ride_id, driver_id, sent_at, expires_at, responded_at, accepted
		FROM ride_requests
		WHERE driver_id = $1 AND responded_at IS NULL AND expires_at > $2
		ORDER BY sent_at ASC;`

	rows, err := q.Query(ctx, query, driverID, now)
	if err != nil {
		return nil, fmt.Errorf("request repo: ListOpenByDriver: %w", err)
	}
	defer rows.Close()

	var reqs []*models.RideRequest
	for rows.Next() {
		var req models.RideRequest
		if err := rows.Scan(
			&req.ID, &req.RideID, &req.DriverID,
			&req.SentAt, &req.ExpiresAt, &req.RespondedAt, &req.Accepted,
		); err != nil {
			return nil, fmt.Errorf("request repo: ListOpenByDriver scan: %w", err)
		}
		reqs = append(reqs, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("request repo: ListOpenByDriver rows: %w", err)
	}
	return reqs, nil
}
