package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/service"

	"github.com/gin-gonic/gin"
)

// StatsQueryServiceInterface - читающий фасад, нужный handlers
type StatsQueryServiceInterface interface {
	GetGameStats(ctx context.Context, gameID string) (*entity.GameStats, error)
	GetDailyStats(ctx context.Context, gameID string, days int) ([]entity.DailyStats, error)
	GetTrending(ctx context.Context, period entity.TrendingPeriod) (*entity.TrendingSnapshot, error)
	GetDeveloperSummary(ctx context.Context, developerID string) (*entity.DeveloperSummary, error)
}

// StatsHandler обслуживает читающие endpoints статистики
type StatsHandler struct {
	queryService StatsQueryServiceInterface
}

// NewStatsHandler создает новый handler статистики
func NewStatsHandler(queryService StatsQueryServiceInterface) *StatsHandler {
	return &StatsHandler{queryService: queryService}
}

// GetGameStats возвращает агрегат игры
// 404 с понятным телом, если отзывов ещё нет - клиент показывает "нет оценок"
func (h *StatsHandler) GetGameStats(c *gin.Context) {
	gameID := c.Param("game_id")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game ID is required"})
		return
	}

	stats, err := h.queryService.GetGameStats(c.Request.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrStatsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No ratings yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get game stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDailyStats возвращает последние дневные агрегаты игры
// Параметр days опционален, по умолчанию и по верхней границе решает сервис
func (h *StatsHandler) GetDailyStats(c *gin.Context) {
	gameID := c.Param("game_id")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game ID is required"})
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		days = parsed
	}

	stats, err := h.queryService.GetDailyStats(c.Request.Context(), gameID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get daily stats"})
		return
	}

	c.JSON(http.StatusOK, entity.DailyStatsResponse{
		GameID: gameID,
		Days:   stats,
		Total:  len(stats),
	})
}

// GetTrending возвращает снапшот трендов периода
func (h *StatsHandler) GetTrending(c *gin.Context) {
	period := entity.TrendingPeriod(c.Param("period"))

	snapshot, err := h.queryService.GetTrending(c.Request.Context(), period)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown period, expected daily, weekly or monthly"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get trending"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetDeveloperSummary возвращает сводку по играм разработчика
func (h *StatsHandler) GetDeveloperSummary(c *gin.Context) {
	developerID := c.Param("developer_id")
	if developerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Developer ID is required"})
		return
	}

	summary, err := h.queryService.GetDeveloperSummary(c.Request.Context(), developerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get developer summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
