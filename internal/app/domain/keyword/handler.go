package keyword

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/common"
	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/app/observability/metrics"
)

type Handler struct {
	suggester *Suggester
	logger    *zap.Logger
}

func NewHandler(suggester *Suggester, logger *zap.Logger) *Handler {
	return &Handler{
		suggester: suggester,
		logger:    logger,
	}
}

type suggestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SuggestKeywords proposes up to five keywords from free text. It never
// touches the store; the vocabulary was loaded at startup.
func (h *Handler) SuggestKeywords(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, models.ErrBadRequest)
		return
	}
	if req.Title == "" && req.Description == "" {
		common.AbortWithError(c, models.ErrQueryMissing)
		return
	}

	suggestions := h.suggester.Suggest(req.Title, req.Description)

	metrics.Get().SuggestionRequests.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("source", "heuristic")))

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
