package rating

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

type rateRequest struct {
	Rating int `json:"rating"`
}

// Rate handles POST /experiences/:id/rating.
func (h *Handler) Rate(c *gin.Context) {
	experienceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}

	if err := h.service.Rate(c.Request.Context(), experienceID, userID, req.Rating); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experience_id": experienceID, "rating": req.Rating})
}

// Aggregate handles GET /experiences/:id/rating.
func (h *Handler) Aggregate(c *gin.Context) {
	experienceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}
	callerID, _ := middleware.UserID(c)

	agg, callerRating, err := h.service.AggregateFor(c.Request.Context(), experienceID, callerID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	resp := gin.H{
		"experience_id":  agg.ExperienceID,
		"average_rating": agg.AverageRating,
		"rating_count":   agg.RatingCount,
	}
	if agg.OwnerRating != nil {
		resp["owner_rating"] = *agg.OwnerRating
	}
	if callerRating != nil {
		resp["user_rating"] = *callerRating
	}
	c.JSON(http.StatusOK, resp)
}
