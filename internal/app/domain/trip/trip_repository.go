package trip

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/pkg/database"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Create(ctx context.Context, trip models.Trip) (int64, error)
	GetByID(ctx context.Context, tripID int64) (*models.TripDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.Trip, error)
	OwnerOf(ctx context.Context, tripID int64) (string, error)
	Update(ctx context.Context, tripID int64, title, description *string, startDate, endDate *time.Time) error
	Delete(ctx context.Context, tripID int64) error
	AddExperience(ctx context.Context, tripID, experienceID int64, displayOrder int) error
	RemoveExperience(ctx context.Context, tripID, experienceID int64) error
	Reorder(ctx context.Context, tripID int64, experienceIDs []int64) error
	ExperienceExists(ctx context.Context, experienceID int64) (bool, error)
	MostAdded(ctx context.Context, limit int) ([]models.PopularExperience, error)
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

func (r *RepositoryImpl) Create(ctx context.Context, trip models.Trip) (int64, error) {
	var id int64
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO trips (user_id, title, description, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING trip_id
    `, trip.UserID, trip.Title, trip.Description, trip.StartDate, trip.EndDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trip: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, tripID int64) (*models.TripDetail, error) {
	var d models.TripDetail
	err := r.pgpool.QueryRow(ctx, `
        SELECT t.trip_id, t.user_id, t.title, t.description,
               t.start_date, t.end_date, t.create_date,
               (SELECT COUNT(*) FROM trip_experiences te WHERE te.trip_id = t.trip_id)
        FROM trips t
        WHERE t.trip_id = $1
    `, tripID).Scan(
		&d.ID, &d.UserID, &d.Title, &d.Description,
		&d.StartDate, &d.EndDate, &d.CreateDate, &d.ExperienceCount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
        SELECT e.experience_id, e.title, e.description, e.address,
               e.latitude, e.longitude, te.display_order,
               ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating
        FROM trip_experiences te
        JOIN experiences e ON e.experience_id = te.experience_id
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        WHERE te.trip_id = $1
        GROUP BY e.experience_id, te.display_order, te.added_at
        ORDER BY te.display_order, te.added_at
    `, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip experiences: %w", err)
	}
	defer rows.Close()

	d.Experiences = []models.TripExperience{}
	for rows.Next() {
		var te models.TripExperience
		if err := rows.Scan(
			&te.ExperienceID, &te.Title, &te.Description, &te.Address,
			&te.Latitude, &te.Longitude, &te.DisplayOrder, &te.AverageRating); err != nil {
			return nil, fmt.Errorf("failed to scan trip experience row: %w", err)
		}
		d.Experiences = append(d.Experiences, te)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip experience rows: %w", err)
	}
	return &d, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID string) ([]models.Trip, error) {
	rows, err := r.pgpool.Query(ctx, `
        SELECT t.trip_id, t.user_id, t.title, t.description,
               t.start_date, t.end_date, t.create_date,
               COUNT(te.experience_id) AS experience_count
        FROM trips t
        LEFT JOIN trip_experiences te ON te.trip_id = t.trip_id
        WHERE t.user_id = $1
        GROUP BY t.trip_id
        ORDER BY t.create_date DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description,
			&t.StartDate, &t.EndDate, &t.CreateDate, &t.ExperienceCount); err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}
	return trips, nil
}

func (r *RepositoryImpl) OwnerOf(ctx context.Context, tripID int64) (string, error) {
	var owner string
	err := r.pgpool.QueryRow(ctx,
		`SELECT user_id FROM trips WHERE trip_id = $1`, tripID).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to look up trip owner: %w", err)
	}
	return owner, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, tripID int64, title, description *string, startDate, endDate *time.Time) error {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update("trips").
		Where(sq.Eq{"trip_id": tripID})
	changed := false
	if title != nil {
		builder = builder.Set("title", *title)
		changed = true
	}
	if description != nil {
		builder = builder.Set("description", *description)
		changed = true
	}
	if startDate != nil {
		builder = builder.Set("start_date", *startDate)
		changed = true
	}
	if endDate != nil {
		builder = builder.Set("end_date", *endDate)
		changed = true
	}
	if !changed {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build trip update: %w", err)
	}
	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, tripID int64) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM trips WHERE trip_id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddExperience links an experience into a trip. Re-adding updates the
// display order instead of duplicating the membership.
func (r *RepositoryImpl) AddExperience(ctx context.Context, tripID, experienceID int64, displayOrder int) error {
	if _, err := r.pgpool.Exec(ctx, `
        INSERT INTO trip_experiences (trip_id, experience_id, display_order)
        VALUES ($1, $2, $3)
        ON CONFLICT (trip_id, experience_id)
        DO UPDATE SET display_order = EXCLUDED.display_order
    `, tripID, experienceID, displayOrder); err != nil {
		return fmt.Errorf("failed to add experience to trip: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) RemoveExperience(ctx context.Context, tripID, experienceID int64) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM trip_experiences WHERE trip_id = $1 AND experience_id = $2`,
		tripID, experienceID)
	if err != nil {
		return fmt.Errorf("failed to remove experience from trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Reorder rewrites display_order for the listed members in one
// transaction; ids not in the trip are ignored by the upsert's WHERE.
func (r *RepositoryImpl) Reorder(ctx context.Context, tripID int64, experienceIDs []int64) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			r.logger.Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	for order, experienceID := range experienceIDs {
		if _, err := tx.Exec(ctx, `
            UPDATE trip_experiences
            SET display_order = $3
            WHERE trip_id = $1 AND experience_id = $2
        `, tripID, experienceID, order); err != nil {
			return fmt.Errorf("failed to reorder trip experience: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
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

// MostAdded returns the experiences appearing in the most trips.
func (r *RepositoryImpl) MostAdded(ctx context.Context, limit int) ([]models.PopularExperience, error) {
	rows, err := r.pgpool.Query(ctx, `
        SELECT e.experience_id, e.user_id, e.title, e.description,
               e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
               COUNT(DISTINCT te.trip_id) AS times_added,
               ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating
        FROM experiences e
        JOIN trip_experiences te ON te.experience_id = e.experience_id
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        GROUP BY e.experience_id
        ORDER BY times_added DESC, average_rating DESC, e.create_date DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most added experiences: %w", err)
	}
	defer rows.Close()

	popular := []models.PopularExperience{}
	for rows.Next() {
		var p models.PopularExperience
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &p.Description,
			&p.Date, &p.CreateDate, &p.Address, &p.Latitude, &p.Longitude,
			&p.TimesAdded, &p.AverageRating); err != nil {
			return nil, fmt.Errorf("failed to scan popular experience row: %w", err)
		}
		popular = append(popular, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating popular experience rows: %w", err)
	}
	return popular, nil
}
