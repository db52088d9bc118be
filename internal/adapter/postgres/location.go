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

// LocationRepo keeps a short trail of driver position reports.
type LocationRepo struct {
	db *pgxpool.Pool
}

func NewLocationRepo(db *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Create(ctx context.Context, loc *models.DriverLocation) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO driver_locations (id, driver_id, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4, $5);`

	_, err := q.Exec(ctx, query, loc.ID, loc.DriverID, loc.Latitude, loc.Longitude, loc.RecordedAt)
	if err != nil {
		return fmt.Errorf("location repo: Create: %w", err)
	}
	return nil
}

func (r *LocationRepo) LastFor(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, driver_id, latitude, longitude, recorded_at
		FROM driver_locations
		WHERE driver_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1;`

	var loc models.DriverLocation
	err := q.QueryRow(ctx, query, driverID).Scan(
		&loc.ID, &loc.DriverID, &loc.Latitude, &loc.Longitude, &loc.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("location repo: LastFor: %w", err)
	}
	return &loc, nil
}

// PurgeOlderThan drops position reports older than the cutoff. Returns how
// many rows went away.
func (r *LocationRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	q := TxorDB(ctx, r.db)

	cmdTag, err := q.Exec(ctx, `DELETE FROM driver_locations WHERE recorded_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("location repo: PurgeOlderThan: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}
