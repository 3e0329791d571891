package handler

import (
	"net/http"
	"strconv"

	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler обслуживает служебные операции:
// ручной пересчёт трендов и повторную обработку dead-letter событий
type AdminHandler struct {
	trendingSvc    service.TrendingServiceInterface
	aggregationSvc service.AggregationServiceInterface
}

// NewAdminHandler создает новый административный handler
func NewAdminHandler(
	trendingSvc service.TrendingServiceInterface,
	aggregationSvc service.AggregationServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		trendingSvc:    trendingSvc,
		aggregationSvc: aggregationSvc,
	}
}

// RecomputeTrending запускает внеплановый пересчёт трендов
func (h *AdminHandler) RecomputeTrending(c *gin.Context) {
	summary, err := h.trendingSvc.ComputeTrending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Trending computation failed"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Trending recomputed",
		Data:    summary,
	})
}

// ReprocessEvents повторно применяет события из dead-letter таблицы
func (h *AdminHandler) ReprocessEvents(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	result, err := h.aggregationSvc.ReprocessFailedEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reprocessing failed"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Reprocessing finished",
		Data:    result,
	})
}
