package repository

import (
	"context"
	"fmt"
	"time"

	"gamepulse/pkg/metrics"
	"gamepulse/stats-service/internal/app/stats/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// failedEventRepository реализует FailedEventRepository поверх PostgreSQL через GORM
type failedEventRepository struct {
	db *gorm.DB
}

// NewFailedEventRepository создает репозиторий dead-letter событий
func NewFailedEventRepository(db *gorm.DB) FailedEventRepository {
	return &failedEventRepository{db: db}
}

// Save сохраняет непримененное событие
func (r *failedEventRepository) Save(ctx context.Context, event *entity.FailedReviewEvent) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "failed_review_events")
	defer timer.ObserveDuration()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = entity.FailedEventStatusPending
	}
	if event.FailedAt.IsZero() {
		event.FailedAt = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to save failed event: %w", result.Error)
	}

	return nil
}

// ListPending возвращает необработанные события, старые первыми
func (r *failedEventRepository) ListPending(ctx context.Context, limit int) ([]entity.FailedReviewEvent, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "failed_review_events")
	defer timer.ObserveDuration()

	var events []entity.FailedReviewEvent

	result := r.db.WithContext(ctx).
		Where("status = ?", entity.FailedEventStatusPending).
		Order("failed_at ASC").
		Limit(limit).
		Find(&events)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list pending events: %w", result.Error)
	}

	return events, nil
}

// MarkReprocessed помечает событие как повторно обработанное
func (r *failedEventRepository) MarkReprocessed(ctx context.Context, id string) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "failed_review_events")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.FailedReviewEvent{}).
		Where("id = ?", id).
		Update("status", entity.FailedEventStatusReprocessed)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to mark event reprocessed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("failed event %s not found", id)
	}

	return nil
}
