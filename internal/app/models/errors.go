package models

import "errors"

// Domain specific errors mapped to HTTP status codes at the handler layer.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")

	ErrTitleEmpty        = errors.New("title cannot be empty")
	ErrDateMissing       = errors.New("experience date is required")
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrLatitudeRange     = errors.New("latitude must be between -90 and 90")
	ErrLongitudeRange    = errors.New("longitude must be between -180 and 180")
	ErrBoundsTooLarge    = errors.New("bounding box span exceeds the allowed maximum")
	ErrQueryMissing      = errors.New("query parameter \"q\" is required")
	ErrQueryTooShort     = errors.New("query must be at least 2 characters")
	ErrCoordinatesNeeded = errors.New("latitude (lat) and longitude (lon) are required")
)
