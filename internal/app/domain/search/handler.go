package search

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/common"
	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/pkg/middleware"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ByKeyword handles GET /search/keyword?q=...&limit=...&offset=...
func (h *Handler) ByKeyword(c *gin.Context) {
	callerID, _ := middleware.UserID(c)
	limit := intQuery(c, "limit")
	offset := intQuery(c, "offset")

	results, err := h.service.ByKeyword(c.Request.Context(), c.Query("q"), callerID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ByLocation handles GET /search/location?lat=...&lon=...&radius=...
func (h *Handler) ByLocation(c *gin.Context) {
	lat, latOK := floatQuery(c, "lat")
	lon, lonOK := floatQuery(c, "lon")
	if !latOK || !lonOK {
		common.AbortWithError(c, models.ErrCoordinatesNeeded)
		return
	}
	radius, _ := floatQuery(c, "radius")
	callerID, _ := middleware.UserID(c)
	limit := intQuery(c, "limit")
	offset := intQuery(c, "offset")

	results, err := h.service.ByLocation(c.Request.Context(), lat, lon, radius, callerID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Combined handles GET /search/combined: keyword and radius filters
// intersected, both required.
func (h *Handler) Combined(c *gin.Context) {
	lat, latOK := floatQuery(c, "lat")
	lon, lonOK := floatQuery(c, "lon")
	if !latOK || !lonOK {
		common.AbortWithError(c, models.ErrCoordinatesNeeded)
		return
	}
	radius, _ := floatQuery(c, "radius")
	callerID, _ := middleware.UserID(c)
	limit := intQuery(c, "limit")
	offset := intQuery(c, "offset")

	results, err := h.service.Combined(c.Request.Context(), c.Query("q"), lat, lon, radius, callerID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ByBounds handles POST /search/bounds with a viewport rectangle body.
func (h *Handler) ByBounds(c *gin.Context) {
	var box models.BoundingBox
	if err := c.ShouldBindJSON(&box); err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}
	callerID, _ := middleware.UserID(c)

	results, err := h.service.ByBounds(c.Request.Context(), box, callerID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Suggestions handles GET /search/suggestions?q=...&limit=...
func (h *Handler) Suggestions(c *gin.Context) {
	limit := intQuery(c, "limit")

	suggestions, err := h.service.Suggest(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func floatQuery(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
