package search

import (
	"fmt"
	"math"

	"github.com/roamlog/roamlog/internal/app/models"
)

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

const (
	// DefaultRadiusKm is used when the caller omits the radius or sends
	// one outside [MinRadiusKm, MaxRadiusKm].
	DefaultRadiusKm = 50.0
	MinRadiusKm     = 1.0
	MaxRadiusKm     = 500.0

	DefaultLimit = 50
	MaxLimit     = 100

	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 20

	// MaxBoundsSpanDegrees caps the latitude and longitude span of a
	// bounding-box search so a single request cannot scan the planet.
	MaxBoundsSpanDegrees = 10.0
	MaxBoundsResults     = 200
)

// ValidateCoordinates checks that latitude is in [-90, 90] and longitude
// in [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return models.ErrLatitudeRange
	}
	if lon < -180 || lon > 180 {
		return models.ErrLongitudeRange
	}
	return nil
}

// ValidateBounds checks both corners of a bounding box and rejects boxes
// whose latitude or longitude span exceeds maxSpan degrees.
func ValidateBounds(box models.BoundingBox, maxSpan float64) error {
	if err := ValidateCoordinates(box.NorthEast.Lat, box.NorthEast.Lng); err != nil {
		return err
	}
	if err := ValidateCoordinates(box.SouthWest.Lat, box.SouthWest.Lng); err != nil {
		return err
	}
	latSpan := math.Abs(box.NorthEast.Lat - box.SouthWest.Lat)
	lngSpan := math.Abs(box.NorthEast.Lng - box.SouthWest.Lng)
	if latSpan > maxSpan || lngSpan > maxSpan {
		return fmt.Errorf("%w: spans %.2f x %.2f degrees, maximum %.1f",
			models.ErrBoundsTooLarge, latSpan, lngSpan, maxSpan)
	}
	return nil
}

// ClampRadius returns radius when it is inside [MinRadiusKm, MaxRadiusKm].
// Values below the minimum fall back to the default; values above the
// maximum are cut to the maximum.
func ClampRadius(radius float64) float64 {
	if radius < MinRadiusKm {
		return DefaultRadiusKm
	}
	if radius > MaxRadiusKm {
		return MaxRadiusKm
	}
	return radius
}

// ClampLimit normalizes a page size into [1, MaxLimit], defaulting when
// out of range.
func ClampLimit(limit int) int {
	if limit < 1 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

// ClampOffset floors a pagination offset at zero.
func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// ClampSuggestionLimit normalizes the autocomplete cap into
// [1, MaxSuggestionLimit].
func ClampSuggestionLimit(limit int) int {
	if limit < 1 || limit > MaxSuggestionLimit {
		return DefaultSuggestionLimit
	}
	return limit
}

// DistanceKm computes the great-circle distance between two points using
// the Haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// radiusBounds returns a coarse lat/lon window that fully contains the
// circle of radiusKm around the center. The window lets the query use the
// (latitude, longitude) index before the exact Haversine filter runs.
func radiusBounds(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := radiusKm / 111.0 // one degree of latitude is ~111 km
	minLat = math.Max(lat-latDelta, -90)
	maxLat = math.Min(lat+latDelta, 90)

	// Longitude degrees shrink with latitude; guard the poles where the
	// divisor collapses to zero.
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		return minLat, maxLat, -180, 180
	}
	lonDelta := radiusKm / (111.0 * cosLat)
	if lonDelta >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, lon - lonDelta, lon + lonDelta
}
