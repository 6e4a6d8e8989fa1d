package experience

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/domain/keyword"
	"github.com/roamlog/roamlog/internal/app/domain/photo"
	"github.com/roamlog/roamlog/internal/app/domain/rating"
	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/pkg/database"
)

var _ Repository = (*RepositoryImpl)(nil)

// StoredPhoto is a photo already uploaded to the blob store, waiting for
// its database record.
type StoredPhoto struct {
	URL     string
	Caption string
}

type Repository interface {
	GetByID(ctx context.Context, experienceID int64, callerID string) (*models.ExperienceDetail, error)
	ListRecent(ctx context.Context, callerID string, limit, offset int) ([]models.ExperienceDetail, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ExperienceDetail, error)
	OwnerOf(ctx context.Context, experienceID int64) (string, error)
	Create(ctx context.Context, exp models.Experience, keywords []string, ownerRating *int, photos []StoredPhoto) (int64, error)
	Update(ctx context.Context, experienceID int64, userID string, updates models.UpdateExperienceRequest, date *time.Time, photos []StoredPhoto) error
	Delete(ctx context.Context, experienceID int64) ([]string, error)
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

const detailColumns = `
        e.experience_id, e.user_id, e.title, e.description,
        e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
        ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating,
        COUNT(r.rating) AS rating_count,
        MAX(CASE WHEN r.user_id = e.user_id THEN r.rating END) AS owner_rating,
        MAX(CASE WHEN r.user_id = $2 THEN r.rating END) AS caller_rating`

func (r *RepositoryImpl) GetByID(ctx context.Context, experienceID int64, callerID string) (*models.ExperienceDetail, error) {
	query := `
        SELECT` + detailColumns + `
        FROM experiences e
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        WHERE e.experience_id = $1
        GROUP BY e.experience_id
    `
	var d models.ExperienceDetail
	err := r.pgpool.QueryRow(ctx, query, experienceID, callerID).Scan(
		&d.ID, &d.UserID, &d.Title, &d.Description,
		&d.Date, &d.CreateDate, &d.Address, &d.Latitude, &d.Longitude,
		&d.AverageRating, &d.RatingCount, &d.OwnerRating, &d.CallerRating)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get experience: %w", err)
	}
	return &d, nil
}

// ListRecent is the public feed: every experience, newest first.
func (r *RepositoryImpl) ListRecent(ctx context.Context, callerID string, limit, offset int) ([]models.ExperienceDetail, error) {
	query := `
        SELECT
            e.experience_id, e.user_id, e.title, e.description,
            e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
            ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating,
            COUNT(r.rating) AS rating_count,
            MAX(CASE WHEN r.user_id = e.user_id THEN r.rating END) AS owner_rating,
            MAX(CASE WHEN r.user_id = $1 THEN r.rating END) AS caller_rating
        FROM experiences e
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        GROUP BY e.experience_id
        ORDER BY e.create_date DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pgpool.Query(ctx, query, callerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	return scanDetails(rows)
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ExperienceDetail, error) {
	// The lister is the owner, so the caller-rating column binds the same
	// user id as the WHERE clause.
	query := `
        SELECT
            e.experience_id, e.user_id, e.title, e.description,
            e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
            ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating,
            COUNT(r.rating) AS rating_count,
            MAX(CASE WHEN r.user_id = e.user_id THEN r.rating END) AS owner_rating,
            MAX(CASE WHEN r.user_id = $1 THEN r.rating END) AS caller_rating
        FROM experiences e
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        WHERE e.user_id = $1
        GROUP BY e.experience_id
        ORDER BY e.create_date DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pgpool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	return scanDetails(rows)
}

func scanDetails(rows pgx.Rows) ([]models.ExperienceDetail, error) {
	details := []models.ExperienceDetail{}
	for rows.Next() {
		var d models.ExperienceDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Title, &d.Description,
			&d.Date, &d.CreateDate, &d.Address, &d.Latitude, &d.Longitude,
			&d.AverageRating, &d.RatingCount, &d.OwnerRating, &d.CallerRating); err != nil {
			return nil, fmt.Errorf("failed to scan experience row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating experience rows: %w", err)
	}
	return details, nil
}

func (r *RepositoryImpl) OwnerOf(ctx context.Context, experienceID int64) (string, error) {
	var owner string
	err := r.pgpool.QueryRow(ctx,
		`SELECT user_id FROM experiences WHERE experience_id = $1`, experienceID).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to look up experience owner: %w", err)
	}
	return owner, nil
}

// Create inserts the experience, its keyword links, the optional owner
// rating and the photo records in one transaction. If any statement
// fails nothing is committed.
func (r *RepositoryImpl) Create(ctx context.Context, exp models.Experience, keywords []string, ownerRating *int, photos []StoredPhoto) (int64, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer r.rollback(ctx, tx)

	var id int64
	err = tx.QueryRow(ctx, `
        INSERT INTO experiences (user_id, title, description, experience_date, address, latitude, longitude)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING experience_id
    `, exp.UserID, exp.Title, exp.Description, exp.Date, exp.Address, exp.Latitude, exp.Longitude).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert experience: %w", err)
	}

	if err := keyword.EnsureAndLink(ctx, tx, id, keywords); err != nil {
		return 0, err
	}
	if ownerRating != nil {
		if err := rating.UpsertTx(ctx, tx, id, exp.UserID, *ownerRating); err != nil {
			return 0, err
		}
	}
	for _, p := range photos {
		if err := photo.InsertTx(ctx, tx, id, p.URL, p.Caption); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// Update applies the provided fields, replaces the keyword link set when
// one was sent, upserts the owner rating and appends new photo records,
// all in one transaction.
func (r *RepositoryImpl) Update(ctx context.Context, experienceID int64, userID string, updates models.UpdateExperienceRequest, date *time.Time, photos []StoredPhoto) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer r.rollback(ctx, tx)

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update("experiences").
		Where(sq.Eq{"experience_id": experienceID})
	changed := false
	if updates.Title != nil {
		builder = builder.Set("title", *updates.Title)
		changed = true
	}
	if updates.Description != nil {
		builder = builder.Set("description", *updates.Description)
		changed = true
	}
	if date != nil {
		builder = builder.Set("experience_date", *date)
		changed = true
	}
	if updates.Address != nil {
		builder = builder.Set("address", *updates.Address)
		changed = true
	}
	if updates.Latitude != nil {
		builder = builder.Set("latitude", *updates.Latitude)
		changed = true
	}
	if updates.Longitude != nil {
		builder = builder.Set("longitude", *updates.Longitude)
		changed = true
	}

	if changed {
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update query: %w", err)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update experience: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
	}

	if updates.Keywords != nil {
		if err := keyword.ReplaceLinks(ctx, tx, experienceID, *updates.Keywords); err != nil {
			return err
		}
	}
	if updates.OwnerRating != nil {
		if err := rating.UpsertTx(ctx, tx, experienceID, userID, *updates.OwnerRating); err != nil {
			return err
		}
	}
	for _, p := range photos {
		if err := photo.InsertTx(ctx, tx, experienceID, p.URL, p.Caption); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes the experience; links, ratings and photo records go
// with it via cascade. It returns the photo URLs so the caller can
// clean the blob store after the commit.
func (r *RepositoryImpl) Delete(ctx context.Context, experienceID int64) ([]string, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer r.rollback(ctx, tx)

	urls, err := photo.DeleteByExperienceTx(ctx, tx, experienceID)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM experiences WHERE experience_id = $1`, experienceID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete experience: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return urls, nil
}

func (r *RepositoryImpl) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		r.logger.Error("Failed to rollback transaction", zap.Error(err))
	}
}
