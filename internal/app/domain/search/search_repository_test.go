package search

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
)

var searchColumns = []string{
	"experience_id", "user_id", "title", "description",
	"experience_date", "create_date", "address", "latitude", "longitude",
	"relevance_score", "average_rating", "rating_count", "owner_rating", "caller_rating",
}

func TestSearchByKeyword(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	owner := 5

	rows := pgxmock.NewRows(searchColumns).
		AddRow(int64(1), "user-1", "Sunset hike", "Evening trail", date, created,
			"Porto", 41.15, -8.61, 3, 4.5, 2, &owner, (*int)(nil)).
		AddRow(int64(2), "user-2", "City walk", "Hiking the old town", date, created,
			"Lisbon", 38.72, -9.14, 2, 0.0, 0, (*int)(nil), (*int)(nil))

	mockPool.ExpectQuery(`CASE`).
		WithArgs("%hik%", "caller-1", 50, 0).
		WillReturnRows(rows)

	results, err := repo.SearchByKeyword(context.Background(), "%hik%", "caller-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, 3, results[0].RelevanceScore)
	assert.Equal(t, 4.5, results[0].AverageRating)
	require.NotNil(t, results[0].OwnerRating)
	assert.Equal(t, 5, *results[0].OwnerRating)
	assert.Nil(t, results[0].CallerRating)

	assert.Equal(t, 2, results[1].RelevanceScore)
	assert.Equal(t, 0.0, results[1].AverageRating)
	assert.Equal(t, 0, results[1].RatingCount)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSearchByLocationScansDistance(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created := date

	columns := []string{
		"experience_id", "user_id", "title", "description",
		"experience_date", "create_date", "address", "latitude", "longitude",
		"distance_km", "average_rating", "rating_count", "owner_rating", "caller_rating",
	}
	distance := 2.4
	rows := pgxmock.NewRows(columns).
		AddRow(int64(7), "user-1", "Riverside cafe", "", date, created,
			"Porto", 41.14, -8.62, &distance, 4.0, 1, (*int)(nil), (*int)(nil))

	mockPool.ExpectQuery(`distance_km`).
		WillReturnRows(rows)

	results, err := repo.SearchByLocation(context.Background(), 41.15, -8.61, 50, "", 50, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].DistanceKm)
	assert.InDelta(t, 2.4, *results[0].DistanceKm, 0.0001)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSearchByBounds(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	box := models.BoundingBox{
		NorthEast: models.LatLng{Lat: 41.2, Lng: -8.5},
		SouthWest: models.LatLng{Lat: 41.1, Lng: -8.7},
	}

	t.Run("anonymous caller omits the caller-rating column", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewRepository(mockPool, zap.NewNop())

		columns := []string{
			"experience_id", "user_id", "title", "description",
			"experience_date", "create_date", "address", "latitude", "longitude",
			"average_rating", "rating_count", "owner_rating",
		}
		rows := pgxmock.NewRows(columns).
			AddRow(int64(3), "user-9", "Market", "", date, date,
				"Porto", 41.15, -8.61, 3.67, 3, (*int)(nil))

		mockPool.ExpectQuery(`SELECT e.experience_id`).
			WithArgs(box.SouthWest.Lat, box.NorthEast.Lat, box.SouthWest.Lng, box.NorthEast.Lng).
			WillReturnRows(rows)

		results, err := repo.SearchByBounds(context.Background(), box, "", 200)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 3.67, results[0].AverageRating)
		assert.Nil(t, results[0].CallerRating)

		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("authenticated caller gets their own rating", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewRepository(mockPool, zap.NewNop())

		columns := []string{
			"experience_id", "user_id", "title", "description",
			"experience_date", "create_date", "address", "latitude", "longitude",
			"average_rating", "rating_count", "owner_rating", "caller_rating",
		}
		mine := 4
		rows := pgxmock.NewRows(columns).
			AddRow(int64(3), "user-9", "Market", "", date, date,
				"Porto", 41.15, -8.61, 3.67, 3, (*int)(nil), &mine)

		mockPool.ExpectQuery(`caller_rating`).
			WillReturnRows(rows)

		results, err := repo.SearchByBounds(context.Background(), box, "caller-1", 200)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].CallerRating)
		assert.Equal(t, 4, *results[0].CallerRating)

		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestSuggestions(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())

	rows := pgxmock.NewRows([]string{"suggestion"}).
		AddRow("beach").
		AddRow("beachfront dinner")

	mockPool.ExpectQuery(`SELECT suggestion FROM`).
		WithArgs("bea%", 10).
		WillReturnRows(rows)

	suggestions, err := repo.Suggestions(context.Background(), "bea%", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "beachfront dinner"}, suggestions)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
