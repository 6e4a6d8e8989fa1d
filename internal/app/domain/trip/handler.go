package trip

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

// Create handles POST /trips.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}

	detail, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// Get handles GET /trips/:id. Public read.
func (h *Handler) Get(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), tripID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListMine handles GET /trips/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	trips, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// Update handles PUT /trips/:id. Owner only.
func (h *Handler) Update(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}

	detail, err := h.service.Update(c.Request.Context(), tripID, callerID, req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Delete handles DELETE /trips/:id. Owner only.
func (h *Handler) Delete(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	if err := h.service.Delete(c.Request.Context(), tripID, callerID); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addExperienceRequest struct {
	ExperienceID int64 `json:"experience_id"`
	DisplayOrder int   `json:"order"`
}

// AddExperience handles POST /trips/:id/experiences.
func (h *Handler) AddExperience(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	var req addExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ExperienceID == 0 {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}

	if err := h.service.AddExperience(c.Request.Context(), tripID, callerID, req.ExperienceID, req.DisplayOrder); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "experience_id": req.ExperienceID})
}

// RemoveExperience handles DELETE /trips/:id/experiences/:experienceId.
func (h *Handler) RemoveExperience(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	experienceID, ok := pathID(c, "experienceId")
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}

	if err := h.service.RemoveExperience(c.Request.Context(), tripID, callerID, experienceID); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	ExperienceIDs []int64 `json:"experience_ids"`
}

// Reorder handles PUT /trips/:id/experiences/order.
func (h *Handler) Reorder(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ExperienceIDs) == 0 {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}

	if err := h.service.Reorder(c.Request.Context(), tripID, callerID, req.ExperienceIDs); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MostAdded handles GET /experiences/most-added.
func (h *Handler) MostAdded(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	popular, err := h.service.MostAdded(c.Request.Context(), limit)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiences": popular, "count": len(popular)})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return 0, false
	}
	return id, true
}
