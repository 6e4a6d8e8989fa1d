package experience

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

// Get handles GET /experiences/:id. Public; the caller's own rating is
// attached when an identity resolved.
func (h *Handler) Get(c *gin.Context) {
	experienceID, ok := pathID(c)
	if !ok {
		return
	}
	callerID, _ := middleware.UserID(c)

	detail, err := h.service.Get(c.Request.Context(), experienceID, callerID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// List handles GET /experiences: the public feed, newest first.
func (h *Handler) List(c *gin.Context) {
	callerID, _ := middleware.UserID(c)
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	details, err := h.service.ListRecent(c.Request.Context(), callerID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiences": details, "count": len(details)})
}

// ListMine handles GET /experiences/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	details, err := h.service.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiences": details, "count": len(details)})
}

// Create handles POST /experiences.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}

	var req models.CreateExperienceRequest
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

// Update handles PUT /experiences/:id. Owner only.
func (h *Handler) Update(c *gin.Context) {
	experienceID, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}

	var req models.UpdateExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}

	detail, err := h.service.Update(c.Request.Context(), experienceID, callerID, req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Delete handles DELETE /experiences/:id. Owner only.
func (h *Handler) Delete(c *gin.Context) {
	experienceID, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}

	if err := h.service.Delete(c.Request.Context(), experienceID, callerID); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return 0, false
	}
	return id, true
}
