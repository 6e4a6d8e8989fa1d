package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamlog/roamlog/internal/app/models"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrValidation, http.StatusBadRequest},
		{models.ErrTitleEmpty, http.StatusBadRequest},
		{models.ErrRatingOutOfRange, http.StatusBadRequest},
		{models.ErrBoundsTooLarge, http.StatusBadRequest},
		{models.ErrQueryTooShort, http.StatusBadRequest},
		{models.ErrUnauthenticated, http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrConflict, http.StatusConflict},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusForError(tc.err), "error %v", tc.err)
	}

	t.Run("wrapped sentinels map too", func(t *testing.T) {
		wrapped := fmt.Errorf("%w: got 9", models.ErrRatingOutOfRange)
		assert.Equal(t, http.StatusBadRequest, StatusForError(wrapped))
	})
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("client errors carry the message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		AbortWithError(c, models.ErrRatingOutOfRange)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Message, "rating")
	})

	t.Run("server errors never leak detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		AbortWithError(c, errors.New("dial tcp 10.0.0.4:5432: connect: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "internal error", resp.Message)
		assert.NotContains(t, w.Body.String(), "10.0.0.4")
	})
}
