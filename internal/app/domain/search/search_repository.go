package search

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/pkg/database"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	SearchByKeyword(ctx context.Context, pattern, callerID string, limit, offset int) ([]models.SearchResult, error)
	SearchByLocation(ctx context.Context, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error)
	SearchCombined(ctx context.Context, pattern string, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error)
	SearchByBounds(ctx context.Context, box models.BoundingBox, callerID string, maxResults int) ([]models.SearchResult, error)
	Suggestions(ctx context.Context, prefix string, limit int) ([]string, error)
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

// ratingColumns computes the aggregate rating columns every search query
// shares. caller_rating is NULL for anonymous callers since no user_id
// matches the empty string.
const ratingColumns = `
        ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating,
        COUNT(r.rating) AS rating_count,
        MAX(CASE WHEN r.user_id = e.user_id THEN r.rating END) AS owner_rating,
        MAX(CASE WHEN r.user_id = $2 THEN r.rating END) AS caller_rating`

// distanceExpr is the Haversine great-circle distance in kilometers
// between the experience row and the center point bound to ($lat, $lon).
func distanceExpr(latParam, lonParam string) string {
	return fmt.Sprintf(`2 * 6371 * asin(sqrt(
            power(sin(radians(e.latitude - %[1]s) / 2), 2) +
            cos(radians(%[1]s)) * cos(radians(e.latitude)) *
            power(sin(radians(e.longitude - %[2]s) / 2), 2)))`, latParam, lonParam)
}

// SearchByKeyword runs the tiered substring match: title hits score 3,
// description hits 2 and linked-keyword hits 1. A term matching several
// tiers takes the highest one.
func (r *RepositoryImpl) SearchByKeyword(ctx context.Context, pattern, callerID string, limit, offset int) ([]models.SearchResult, error) {
	query := `
        SELECT
            e.experience_id, e.user_id, e.title, e.description,
            e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
            CASE
                WHEN LOWER(e.title) LIKE LOWER($1) THEN 3
                WHEN LOWER(e.description) LIKE LOWER($1) THEN 2
                ELSE 1
            END AS relevance_score,` + ratingColumns + `
        FROM experiences e
        LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
        WHERE LOWER(e.title) LIKE LOWER($1)
           OR LOWER(e.description) LIKE LOWER($1)
           OR EXISTS (
                SELECT 1
                FROM experience_keywords ek
                JOIN keywords k ON k.keyword_id = ek.keyword_id
                WHERE ek.experience_id = e.experience_id
                  AND LOWER(k.name) LIKE LOWER($1))
        GROUP BY e.experience_id
        ORDER BY relevance_score DESC, average_rating DESC, e.create_date DESC
        LIMIT $3 OFFSET $4
    `
	rows, err := r.pgpool.Query(ctx, query, pattern, callerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	defer rows.Close()

	return collectResults(rows, withRelevance)
}

// SearchByLocation returns experiences within radiusKm of the center,
// nearest first. The bounding window computed from the radius lets the
// (latitude, longitude) index prune rows before the exact distance filter.
func (r *RepositoryImpl) SearchByLocation(ctx context.Context, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error) {
	minLat, maxLat, minLon, maxLon := radiusBounds(lat, lon, radiusKm)

	query := `
        SELECT * FROM (
            SELECT
                e.experience_id, e.user_id, e.title, e.description,
                e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
                ` + distanceExpr("$1", "$3") + ` AS distance_km,` + ratingColumns + `
            FROM experiences e
            LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
            WHERE e.latitude BETWEEN $4 AND $5
              AND e.longitude BETWEEN $6 AND $7
            GROUP BY e.experience_id
        ) sub
        WHERE sub.distance_km <= $8
        ORDER BY sub.distance_km ASC, sub.average_rating DESC
        LIMIT $9 OFFSET $10
    `
	rows, err := r.pgpool.Query(ctx, query,
		lat, callerID, lon, minLat, maxLat, minLon, maxLon, radiusKm, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to run location search: %w", err)
	}
	defer rows.Close()

	return collectResults(rows, withDistance)
}

// SearchCombined intersects the keyword and radius filters. Relevance
// wins over proximity in the ordering.
func (r *RepositoryImpl) SearchCombined(ctx context.Context, pattern string, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error) {
	minLat, maxLat, minLon, maxLon := radiusBounds(lat, lon, radiusKm)

	query := `
        SELECT * FROM (
            SELECT
                e.experience_id, e.user_id, e.title, e.description,
                e.experience_date, e.create_date, e.address, e.latitude, e.longitude,
                CASE
                    WHEN LOWER(e.title) LIKE LOWER($1) THEN 3
                    WHEN LOWER(e.description) LIKE LOWER($1) THEN 2
                    ELSE 1
                END AS relevance_score,
                ` + distanceExpr("$3", "$4") + ` AS distance_km,` + ratingColumns + `
            FROM experiences e
            LEFT JOIN experience_ratings r ON r.experience_id = e.experience_id
            WHERE (LOWER(e.title) LIKE LOWER($1)
               OR LOWER(e.description) LIKE LOWER($1)
               OR EXISTS (
                    SELECT 1
                    FROM experience_keywords ek
                    JOIN keywords k ON k.keyword_id = ek.keyword_id
                    WHERE ek.experience_id = e.experience_id
                      AND LOWER(k.name) LIKE LOWER($1)))
              AND e.latitude BETWEEN $5 AND $6
              AND e.longitude BETWEEN $7 AND $8
            GROUP BY e.experience_id
        ) sub
        WHERE sub.distance_km <= $9
        ORDER BY sub.relevance_score DESC, sub.distance_km ASC, sub.average_rating DESC
        LIMIT $10 OFFSET $11
    `
	rows, err := r.pgpool.Query(ctx, query,
		pattern, callerID, lat, lon, minLat, maxLat, minLon, maxLon, radiusKm, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to run combined search: %w", err)
	}
	defer rows.Close()

	return collectResults(rows, withRelevance|withDistance)
}

// SearchByBounds returns experiences inside the viewport rectangle,
// best-rated first, newest breaking ties. The query is built dynamically
// so the caller-rating column only joins in for authenticated callers.
func (r *RepositoryImpl) SearchByBounds(ctx context.Context, box models.BoundingBox, callerID string, maxResults int) ([]models.SearchResult, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	builder := psql.Select(
		"e.experience_id", "e.user_id", "e.title", "e.description",
		"e.experience_date", "e.create_date", "e.address", "e.latitude", "e.longitude",
		"ROUND(COALESCE(AVG(r.rating), 0), 2)::float8 AS average_rating",
		"COUNT(r.rating) AS rating_count",
		"MAX(CASE WHEN r.user_id = e.user_id THEN r.rating END) AS owner_rating",
	).
		From("experiences e").
		LeftJoin("experience_ratings r ON r.experience_id = e.experience_id").
		Where(sq.GtOrEq{"e.latitude": box.SouthWest.Lat}).
		Where(sq.LtOrEq{"e.latitude": box.NorthEast.Lat}).
		Where(sq.GtOrEq{"e.longitude": box.SouthWest.Lng}).
		Where(sq.LtOrEq{"e.longitude": box.NorthEast.Lng}).
		GroupBy("e.experience_id").
		OrderBy("average_rating DESC", "e.create_date DESC").
		Limit(uint64(maxResults))

	if callerID != "" {
		builder = builder.Column("MAX(CASE WHEN r.user_id = ? THEN r.rating END) AS caller_rating", callerID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build bounds query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run bounds search: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var res models.SearchResult
		dest := []any{
			&res.ID, &res.UserID, &res.Title, &res.Description,
			&res.Date, &res.CreateDate, &res.Address, &res.Latitude, &res.Longitude,
			&res.AverageRating, &res.RatingCount, &res.OwnerRating,
		}
		if callerID != "" {
			dest = append(dest, &res.CallerRating)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan bounds row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bounds rows: %w", err)
	}
	return results, nil
}

// Suggestions returns autocomplete candidates matching the prefix, drawn
// from keyword names and experience titles, alphabetically.
func (r *RepositoryImpl) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	query := `
        SELECT suggestion FROM (
            SELECT DISTINCT k.name AS suggestion
            FROM keywords k
            WHERE LOWER(k.name) LIKE LOWER($1)
            UNION
            SELECT DISTINCT e.title AS suggestion
            FROM experiences e
            WHERE LOWER(e.title) LIKE LOWER($1)
        ) s
        ORDER BY suggestion
        LIMIT $2
    `
	rows, err := r.pgpool.Query(ctx, query, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestion rows: %w", err)
	}
	return suggestions, nil
}

type resultShape int

const (
	withRelevance resultShape = 1 << iota
	withDistance
)

func collectResults(rows pgx.Rows, shape resultShape) ([]models.SearchResult, error) {
	results := []models.SearchResult{}
	for rows.Next() {
		var res models.SearchResult
		dest := []any{
			&res.ID, &res.UserID, &res.Title, &res.Description,
			&res.Date, &res.CreateDate, &res.Address, &res.Latitude, &res.Longitude,
		}
		if shape&withRelevance != 0 {
			dest = append(dest, &res.RelevanceScore)
		}
		if shape&withDistance != 0 {
			dest = append(dest, &res.DistanceKm)
		}
		dest = append(dest,
			&res.AverageRating, &res.RatingCount, &res.OwnerRating, &res.CallerRating)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}
	return results, nil
}
