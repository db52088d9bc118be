package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/postgres"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type RatingRepo struct {
	db *pgxpool.Pool
}

func NewRatingRepo(db *pgxpool.Pool) *RatingRepo {
	return &RatingRepo{db: db}
}

func (r *RatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO ratings (id, ride_id, rater_id, ratee_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := q.Exec(ctx, query,
		rating.ID, rating.RideID, rating.RaterID, rating.RateeID,
		rating.Score, rating.Comment, rating.CreatedAt,
	)
	if err != nil {
		// One rating per (ride, rater).
		if postgres.IsUniqueViolation(err) {
			return types.ErrAlreadyRated
		}
		if postgres.IsForeignKeyViolation(err) {
			return types.ErrRideNotFound
		}
		return fmt.Errorf("rating repo: Create: %w", err)
	}
	return nil
}

func (r *RatingRepo) ListByRatee(ctx context.Context, rateeID uuid.UUID, filters models.Filters) ([]*models.Rating, models.Metadata, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT count(*) OVER(), id, ride_id, rater_id, ratee_id, score, comment, created_at
		FROM ratings
		WHERE ratee_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;`

	rows, err := q.Query(ctx, query, rateeID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("rating repo: ListByRatee: %w", err)
	}
	defer rows.Close()

	var (
		total int
		out   []*models.Rating
	)
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(&total, &rating.ID, &rating.RideID, &rating.RaterID, &rating.RateeID, &rating.Score, &rating.Comment, &rating.CreatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("rating repo: ListByRatee scan: %w", err)
		}
		out = append(out, &rating)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("rating repo: ListByRatee rows: %w", err)
	}

	return out, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}
