package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/postgres"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `
	id, full_name, email, password_hash, role, phone_number,
	current_lat, current_lng, driver_status, rating, total_trips,
	created_at, last_login_at`

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO users (id, full_name, email, password_hash, role, phone_number, driver_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := q.Exec(ctx, query,
		user.ID, user.FullName, user.Email, user.PasswordHash,
		user.Role, user.PhoneNumber, user.DriverStatus, user.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrEmailAlreadyExists
		}
		return fmt.Errorf("user repo: Create: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT` + userColumns + `FROM users WHERE id = $1;`

	user, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repo: FindByID: %w", err)
	}
	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT` + userColumns + `FROM users WHERE lower(email) = lower($1);`

	user, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repo: FindByEmail: %w", err)
	}
	return user, nil
}

func (r *UserRepo) SetDriverStatus(ctx context.Context, driverID uuid.UUID, status types.DriverStatus) error {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE users
		SET driver_status = $2
		WHERE id = $1 AND role = 'DRIVER';`

	cmdTag, err := q.Exec(ctx, query, driverID, status)
	if err != nil {
		return fmt.Errorf("user repo: SetDriverStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) UpdatePosition(ctx context.Context, userID uuid.UUID, lat, lng float64) error {
	q := TxorDB(ctx, r.db)

	query := `UPDATE users SET current_lat = $2, current_lng = $3 WHERE id = $1;`

	cmdTag, err := q.Exec(ctx, query, userID, lat, lng)
	if err != nil {
		return fmt.Errorf("user repo: UpdatePosition: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("user repo: TouchLastLogin: %w", err)
	}
	return nil
}

// ApplyRating refreshes the driver's aggregate rating after a new score.
func (r *UserRepo) ApplyRating(ctx context.Context, rateeID uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE users
		SET rating = sub.avg_score
		FROM (SELECT avg(score)::numeric(3,2) AS avg_score FROM ratings WHERE ratee_id = $1) sub
		WHERE id = $1;`

	if _, err := q.Exec(ctx, query, rateeID); err != nil {
		return fmt.Errorf("user repo: ApplyRating: %w", err)
	}
	return nil
}

// IncrementTrips bumps the driver's completed trip counter.
func (r *UserRepo) IncrementTrips(ctx context.Context, driverID uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	query := `UPDATE users SET total_trips = coalesce(total_trips, 0) + 1 WHERE id = $1;`

	if _, err := q.Exec(ctx, query, driverID); err != nil {
		return fmt.Errorf("user repo: IncrementTrips: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.Role, &user.PhoneNumber,
		&user.CurrentLat, &user.CurrentLng,
		&user.DriverStatus, &user.Rating, &user.TotalTrips,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
