package photo

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
	ListForExperience(ctx context.Context, experienceID int64) ([]models.Photo, error)
	ListForExperiences(ctx context.Context, experienceIDs []int64) (map[int64][]models.Photo, error)
	FindWithOwner(ctx context.Context, photoID int64) (models.Photo, string, error)
	DeleteByID(ctx context.Context, photoID int64) error
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

func (r *RepositoryImpl) ListForExperience(ctx context.Context, experienceID int64) ([]models.Photo, error) {
	query := `
        SELECT photo_id, experience_id, url, caption, uploaded_at
        FROM photos
        WHERE experience_id = $1
        ORDER BY photo_id
    `
	rows, err := r.pgpool.Query(ctx, query, experienceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	return collectPhotos(rows)
}

func (r *RepositoryImpl) ListForExperiences(ctx context.Context, experienceIDs []int64) (map[int64][]models.Photo, error) {
	result := make(map[int64][]models.Photo, len(experienceIDs))
	if len(experienceIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT photo_id, experience_id, url, caption, uploaded_at
        FROM photos
        WHERE experience_id = ANY($1)
        ORDER BY experience_id, photo_id
    `
	rows, err := r.pgpool.Query(ctx, query, experienceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	photos, err := collectPhotos(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		result[p.ExperienceID] = append(result[p.ExperienceID], p)
	}
	return result, nil
}

// FindWithOwner loads one photo together with the user id owning its
// parent experience.
func (r *RepositoryImpl) FindWithOwner(ctx context.Context, photoID int64) (models.Photo, string, error) {
	query := `
        SELECT p.photo_id, p.experience_id, p.url, p.caption, p.uploaded_at, e.user_id
        FROM photos p
        JOIN experiences e ON e.experience_id = p.experience_id
        WHERE p.photo_id = $1
    `
	var p models.Photo
	var owner string
	err := r.pgpool.QueryRow(ctx, query, photoID).Scan(
		&p.ID, &p.ExperienceID, &p.URL, &p.Caption, &p.UploadedAt, &owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.Photo{}, "", models.ErrNotFound
		}
		return models.Photo{}, "", fmt.Errorf("failed to find photo: %w", err)
	}
	return p, owner, nil
}

func (r *RepositoryImpl) DeleteByID(ctx context.Context, photoID int64) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM photos WHERE photo_id = $1`, photoID)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func collectPhotos(rows pgx.Rows) ([]models.Photo, error) {
	photos := []models.Photo{}
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.ExperienceID, &p.URL, &p.Caption, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photo rows: %w", err)
	}
	return photos, nil
}

// InsertTx persists one photo record inside the caller's transaction.
func InsertTx(ctx context.Context, tx pgx.Tx, experienceID int64, url, caption string) error {
	if _, err := tx.Exec(ctx, `
        INSERT INTO photos (experience_id, url, caption)
        VALUES ($1, $2, $3)
    `, experienceID, url, caption); err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

// DeleteByExperienceTx removes every photo record of an experience and
// returns the blob URLs so the caller can clean the store afterwards.
func DeleteByExperienceTx(ctx context.Context, tx pgx.Tx, experienceID int64) ([]string, error) {
	rows, err := tx.Query(ctx,
		`DELETE FROM photos WHERE experience_id = $1 RETURNING url`, experienceID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete photos: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan deleted photo url: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deleted photo rows: %w", err)
	}
	return urls, nil
}
