package rating

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/pkg/database"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Upsert(ctx context.Context, experienceID int64, userID string, value int) error
	AggregateFor(ctx context.Context, experienceID int64, callerID string) (models.RatingAggregate, *int, error)
	ExperienceExists(ctx context.Context, experienceID int64) (bool, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.PgxIface
}

func NewRepository(pgpool database.PgxIface, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const upsertQuery = `
        INSERT INTO experience_ratings (experience_id, user_id, rating)
        VALUES ($1, $2, $3)
        ON CONFLICT (experience_id, user_id)
        DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()
    `

// Upsert records one rating per (experience, user). A repeat submission
// overwrites the previous value and bumps updated_at; concurrent
// submissions from different users never conflict.
func (r *RepositoryImpl) Upsert(ctx context.Context, experienceID int64, userID string, value int) error {
	if _, err := r.pgpool.Exec(ctx, upsertQuery, experienceID, userID, value); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// UpsertTx is Upsert inside the caller's transaction, used by the
// composite experience create/update flow.
func UpsertTx(ctx context.Context, tx pgx.Tx, experienceID int64, userID string, value int) error {
	if _, err := tx.Exec(ctx, upsertQuery, experienceID, userID, value); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// AggregateFor computes the rating aggregate at read time. The average
// is rounded to two decimals and is 0.0 with no ratings, never null.
// The second return is the caller's own rating, nil when absent or when
// callerID is empty.
func (r *RepositoryImpl) AggregateFor(ctx context.Context, experienceID int64, callerID string) (models.RatingAggregate, *int, error) {
	query := `
        SELECT
            ROUND(COALESCE(AVG(r.rating), 0), 2)::float8,
            COUNT(r.rating),
            MAX(CASE WHEN r.user_id = e.user_id THEN r.rating END),
            MAX(CASE WHEN r.user_id = $2 THEN r.rating END)
        FROM experiences e
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        WHERE e.experience_id = $1
        GROUP BY e.experience_id
    `
	agg := models.RatingAggregate{ExperienceID: experienceID}
	var callerRating *int
	err := r.pgpool.QueryRow(ctx, query, experienceID, callerID).Scan(
		&agg.AverageRating, &agg.RatingCount, &agg.OwnerRating, &callerRating)
	if err != nil {
		if err == pgx.ErrNoRows {
			return agg, nil, models.ErrNotFound
		}
		return agg, nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return agg, callerRating, nil
}

func (r *RepositoryImpl) ExperienceExists(ctx context.Context, experienceID int64) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM experiences WHERE experience_id = $1)`,
		experienceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check experience existence: %w", err)
	}
	return exists, nil
}
