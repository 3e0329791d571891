package repository

import (
	"context"
	"errors"

	"gamepulse/stats-service/internal/app/stats/entity"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer

	// ErrStatsNotFound - агрегата ещё нет (для первой записи это не ошибка)
	ErrStatsNotFound = errors.New("stats not found")

	// ErrVersionConflict - условная запись не прошла: версия документа
	// изменилась между чтением и записью, нужно повторить цикл
	ErrVersionConflict = errors.New("aggregate version conflict")

	// ErrSnapshotNotFound - снапшот трендов ещё ни разу не публиковался
	ErrSnapshotNotFound = errors.New("trending snapshot not found")
)

// GameStatsRepository хранит агрегаты по играм в MongoDB
type GameStatsRepository interface {
	// Get получает агрегат игры; ErrStatsNotFound если документа нет
	Get(ctx context.Context, gameID string) (*entity.GameStats, error)

	// Save записывает агрегат условно: Version=0 - вставка нового документа,
	// иначе обновление при совпадении версии. ErrVersionConflict при гонке
	Save(ctx context.Context, stats *entity.GameStats) error

	// ListActive возвращает все игры, у которых есть хотя бы один отзыв
	ListActive(ctx context.Context) ([]entity.GameStats, error)
}

// DailyStatsRepository хранит дневные агрегаты в MongoDB
type DailyStatsRepository interface {
	// Get получает дневной агрегат; ErrStatsNotFound если документа нет
	Get(ctx context.Context, gameID string, date string) (*entity.DailyStats, error)

	// Save записывает дневной агрегат с той же условной семантикой, что и GameStats
	Save(ctx context.Context, stats *entity.DailyStats) error

	// GetRecent возвращает не более days последних записей игры,
	// отсортированных хронологически (от старых к новым)
	GetRecent(ctx context.Context, gameID string, days int) ([]entity.DailyStats, error)

	// DeleteOlderThan удаляет записи с датой строго раньше cutoff (формат 2006-01-02)
	// Возвращает количество удалённых документов
	DeleteOlderThan(ctx context.Context, cutoff string) (int64, error)
}

// TrendingRepository хранит снапшоты трендов в Redis
type TrendingRepository interface {
	// SaveSnapshot атомарно заменяет снапшот периода
	SaveSnapshot(ctx context.Context, snapshot *entity.TrendingSnapshot) error

	// GetSnapshot получает снапшот периода; ErrSnapshotNotFound если его нет
	GetSnapshot(ctx context.Context, period entity.TrendingPeriod) (*entity.TrendingSnapshot, error)
}

// FailedEventRepository хранит непримененные события в PostgreSQL
type FailedEventRepository interface {
	// Save сохраняет событие в dead-letter таблицу
	Save(ctx context.Context, event *entity.FailedReviewEvent) error

	// ListPending возвращает не более limit необработанных событий (старые первыми)
	ListPending(ctx context.Context, limit int) ([]entity.FailedReviewEvent, error)

	// MarkReprocessed помечает событие как успешно повторно обработанное
	MarkReprocessed(ctx context.Context, id string) error
}
