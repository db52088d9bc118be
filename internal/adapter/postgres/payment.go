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

type PaymentRepo struct {
	db *pgxpool.Pool
}

func NewPaymentRepo(db *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO payments (id, ride_id, customer_id, amount, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := q.Exec(ctx, query, p.ID, p.RideID, p.CustomerID, p.Amount, p.Method, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("payment repo: Create: %w", err)
	}
	return nil
}

func (r *PaymentRepo) FindByRide(ctx context.Context, rideID uuid.UUID) (*models.Payment, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, ride_id, customer_id, amount, method, status, created_at, paid_at
		FROM payments
		WHERE ride_id = $1;`

	var p models.Payment
	err := q.QueryRow(ctx, query, rideID).Scan(
		&p.ID, &p.RideID, &p.CustomerID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt, &p.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("payment repo: FindByRide: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepo) SetStatus(ctx context.Context, id uuid.UUID, status types.PaymentStatus, method types.PaymentMethod) error {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE payments
		SET status = $2,
			method = $3,
			paid_at = CASE WHEN $2 = 'COMPLETED' THEN now() ELSE paid_at END
		WHERE id = $1;`

	cmdTag, err := q.Exec(ctx, query, id, status, method)
	if err != nil {
		return fmt.Errorf("payment repo: SetStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
