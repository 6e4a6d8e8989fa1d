package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamlog/roamlog/internal/app/models"
)

func TestDistanceKm(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.InDelta(t, 0, DistanceKm(48.8566, 2.3522, 48.8566, 2.3522), 0.0001)
	})

	t.Run("paris to london", func(t *testing.T) {
		// Great-circle distance is roughly 344 km
		d := DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
		assert.InDelta(t, 344, d, 5)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
		b := DistanceKm(34.0522, -118.2437, 40.7128, -74.0060)
		assert.InDelta(t, a, b, 0.0001)
	})
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(0, 0))
	assert.NoError(t, ValidateCoordinates(90, 180))
	assert.NoError(t, ValidateCoordinates(-90, -180))
	assert.ErrorIs(t, ValidateCoordinates(90.01, 0), models.ErrLatitudeRange)
	assert.ErrorIs(t, ValidateCoordinates(-91, 0), models.ErrLatitudeRange)
	assert.ErrorIs(t, ValidateCoordinates(0, 180.5), models.ErrLongitudeRange)
	assert.ErrorIs(t, ValidateCoordinates(0, -181), models.ErrLongitudeRange)
}

func TestValidateBounds(t *testing.T) {
	box := func(neLat, neLng, swLat, swLng float64) models.BoundingBox {
		return models.BoundingBox{
			NorthEast: models.LatLng{Lat: neLat, Lng: neLng},
			SouthWest: models.LatLng{Lat: swLat, Lng: swLng},
		}
	}

	t.Run("accepts a small viewport", func(t *testing.T) {
		assert.NoError(t, ValidateBounds(box(41.0, -8.5, 40.9, -8.7), 10.0))
	})

	t.Run("rejects oversized latitude span", func(t *testing.T) {
		err := ValidateBounds(box(55.0, 0, 40.0, 0), 10.0)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrBoundsTooLarge)
	})

	t.Run("rejects oversized longitude span", func(t *testing.T) {
		err := ValidateBounds(box(41.0, 20.0, 40.0, 0), 10.0)
		assert.ErrorIs(t, err, models.ErrBoundsTooLarge)
	})

	t.Run("rejects invalid corners before checking spans", func(t *testing.T) {
		err := ValidateBounds(box(95.0, 0, 40.0, 0), 10.0)
		assert.ErrorIs(t, err, models.ErrLatitudeRange)
	})

	t.Run("span exactly at the cap passes", func(t *testing.T) {
		assert.NoError(t, ValidateBounds(box(50.0, 10.0, 40.0, 0), 10.0))
	})
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, DefaultRadiusKm, ClampRadius(0))
	assert.Equal(t, DefaultRadiusKm, ClampRadius(-3))
	assert.Equal(t, DefaultRadiusKm, ClampRadius(0.5))
	assert.Equal(t, 1.0, ClampRadius(1))
	assert.Equal(t, 120.0, ClampRadius(120))
	assert.Equal(t, MaxRadiusKm, ClampRadius(500))
	assert.Equal(t, MaxRadiusKm, ClampRadius(10000))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-1))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxLimit, ClampLimit(100))
	assert.Equal(t, DefaultLimit, ClampLimit(101))
}

func TestClampSuggestionLimit(t *testing.T) {
	assert.Equal(t, DefaultSuggestionLimit, ClampSuggestionLimit(0))
	assert.Equal(t, 5, ClampSuggestionLimit(5))
	assert.Equal(t, MaxSuggestionLimit, ClampSuggestionLimit(20))
	assert.Equal(t, DefaultSuggestionLimit, ClampSuggestionLimit(21))
}

func TestRadiusBounds(t *testing.T) {
	t.Run("window contains the circle", func(t *testing.T) {
		minLat, maxLat, minLon, maxLon := radiusBounds(41.15, -8.61, 50)
		assert.Less(t, minLat, 41.15)
		assert.Greater(t, maxLat, 41.15)
		assert.Less(t, minLon, -8.61)
		assert.Greater(t, maxLon, -8.61)
		// 50 km is under one degree of latitude
		assert.InDelta(t, 41.15, minLat, 1.0)
	})

	t.Run("near the pole the longitude window opens fully", func(t *testing.T) {
		_, _, minLon, maxLon := radiusBounds(89.9, 10, 100)
		assert.Equal(t, -180.0, minLon)
		assert.Equal(t, 180.0, maxLon)
	})

	t.Run("latitude clamps at the poles", func(t *testing.T) {
		_, maxLat, _, _ := radiusBounds(89.5, 0, 200)
		assert.Equal(t, 90.0, maxLat)
	})
}
