package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gamepulse/pkg/logger"
	"gamepulse/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(statsHandler *StatsHandler, adminHandler *AdminHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("stats-service"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "stats-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Публичные читающие эндпоинты (витрина, страницы игр)
	stats := router.Group("/stats")
	{
		stats.GET("/games/:game_id", statsHandler.GetGameStats)
		stats.GET("/games/:game_id/daily", statsHandler.GetDailyStats)
		stats.GET("/trending/:period", statsHandler.GetTrending)

		// Сводка разработчика - только для авторизованных (дашборд студии)
		protected := stats.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.GET("/developers/:developer_id/summary", statsHandler.GetDeveloperSummary)
		}
	}

	// Admin эндпоинты - только для администраторов
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireAdmin())
	{
		admin.POST("/trending/recompute", adminHandler.RecomputeTrending)
		admin.POST("/events/reprocess", adminHandler.ReprocessEvents)
	}

	return router
}
