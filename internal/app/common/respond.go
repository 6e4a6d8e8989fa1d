// Package common holds the pieces shared by every handler: the error
// response shape and the mapping from domain errors to HTTP status codes.
package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamlog/roamlog/internal/app/models"
)

// ErrorResponse is the wire shape of every failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusForError maps a domain error to its HTTP status. Anything not a
// known sentinel is a store or unexpected failure.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrTitleEmpty),
		errors.Is(err, models.ErrDateMissing),
		errors.Is(err, models.ErrRatingOutOfRange),
		errors.Is(err, models.ErrLatitudeRange),
		errors.Is(err, models.ErrLongitudeRange),
		errors.Is(err, models.ErrBoundsTooLarge),
		errors.Is(err, models.ErrQueryMissing),
		errors.Is(err, models.ErrQueryTooShort),
		errors.Is(err, models.ErrCoordinatesNeeded):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes the JSON error envelope for err. Store detail is
// never leaked: 5xx responses carry a generic message.
func AbortWithError(c *gin.Context, err error) {
	status := StatusForError(err)
	resp := ErrorResponse{Error: http.StatusText(status)}
	if status < http.StatusInternalServerError {
		resp.Message = err.Error()
	} else {
		resp.Message = "internal error"
	}
	c.AbortWithStatusJSON(status, resp)
}
