package photo

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

// Delete handles DELETE /experiences/:id/photos/:photoId. Owner only.
func (h *Handler) Delete(c *gin.Context) {
	experienceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}
	photoID, err := strconv.ParseInt(c.Param("photoId"), 10, 64)
	if err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}
	callerID, ok := middleware.UserID(c)
	if !ok {
		common.AbortWithError(c, models.ErrUnauthenticated)
		return
	}

	if err := h.service.Delete(c.Request.Context(), experienceID, photoID, callerID); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
