package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO notifications (id, user_id, ride_id, kind, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := q.Exec(ctx, query, n.ID, n.UserID, n.RideID, n.Kind, n.Title, n.Body, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repo: Create: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Notification, models.Metadata, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT count(*) OVER(), id, user_id, ride_id, kind, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;`

	rows, err := q.Query(ctx, query, userID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("notification repo: ListByUser: %w", err)
	}
	defer rows.Close()

	var (
		total int
		out   []*models.Notification
	)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&total, &n.ID, &n.UserID, &n.RideID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("notification repo: ListByUser scan: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("notification repo: ListByUser rows: %w", err)
	}

	return out, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	q := TxorDB(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND read = false;`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notification repo: CountUnread: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	cmdTag, err := q.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return fmt.Errorf("notification repo: MarkRead: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
