package service

import (
	"context"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"
)

// AggregationServiceInterface применяет события отзывов к агрегатам
// Используется Kafka consumer и обработчиком повторной обработки
type AggregationServiceInterface interface {
	ProcessEvent(ctx context.Context, event *entity.ReviewEvent) error
	OnReviewCreated(ctx context.Context, gameID string, rating int, occurredAt time.Time) error
	OnReviewUpdated(ctx context.Context, gameID string, oldRating, newRating int, occurredAt time.Time) error
	OnReviewDeleted(ctx context.Context, gameID string, rating int, occurredAt time.Time) error
	ReprocessFailedEvents(ctx context.Context, limit int) (*entity.ReprocessResult, error)
}

// TrendingServiceInterface выполняет пересчёт трендов
// Используется cron scheduler и admin endpoint
type TrendingServiceInterface interface {
	ComputeTrending(ctx context.Context) (*entity.TrendingRunSummary, error)
}

// RetentionServiceInterface выполняет плановую очистку дневных агрегатов
type RetentionServiceInterface interface {
	PruneDailyStats(ctx context.Context) (int64, error)
}
