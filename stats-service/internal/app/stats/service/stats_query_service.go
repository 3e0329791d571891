package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/infrastructure"
	"gamepulse/stats-service/internal/app/stats/repository"
)

// StatsQueryService - читающий фасад над агрегатами и трендами
// Используется дашбордами; ничего не изменяет
type StatsQueryService struct {
	gameStatsRepo  repository.GameStatsRepository
	dailyStatsRepo repository.DailyStatsRepository
	trendingRepo   repository.TrendingRepository
	catalogClient  infrastructure.CatalogServiceClient
	maxDailyDays   int
}

// NewStatsQueryService создает читающий фасад
func NewStatsQueryService(
	gameStatsRepo repository.GameStatsRepository,
	dailyStatsRepo repository.DailyStatsRepository,
	trendingRepo repository.TrendingRepository,
	catalogClient infrastructure.CatalogServiceClient,
	maxDailyDays int,
) *StatsQueryService {
	if maxDailyDays <= 0 {
		maxDailyDays = 90
	}

	return &StatsQueryService{
		gameStatsRepo:  gameStatsRepo,
		dailyStatsRepo: dailyStatsRepo,
		trendingRepo:   trendingRepo,
		catalogClient:  catalogClient,
		maxDailyDays:   maxDailyDays,
	}
}

// GetGameStats возвращает агрегат игры
// ErrStatsNotFound - у игры ещё нет отзывов (клиент показывает "нет оценок")
func (s *StatsQueryService) GetGameStats(ctx context.Context, gameID string) (*entity.GameStats, error) {
	stats, err := s.gameStatsRepo.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrStatsNotFound) {
			return nil, ErrStatsNotFound
		}
		return nil, fmt.Errorf("failed to get game stats: %w", err)
	}

	return stats, nil
}

// GetDailyStats возвращает не более days последних дневных записей игры
// в хронологическом порядке. Запрошенная глубина ограничивается сверху
// окном хранения
func (s *StatsQueryService) GetDailyStats(ctx context.Context, gameID string, days int) ([]entity.DailyStats, error) {
	if days <= 0 {
		days = 30
	}
	if days > s.maxDailyDays {
		days = s.maxDailyDays
	}

	stats, err := s.dailyStatsRepo.GetRecent(ctx, gameID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	return stats, nil
}

// GetTrending возвращает снапшот периода
// Если пересчёт ещё не запускался, отдается пустой снапшот - это
// валидное состояние, а не ошибка
func (s *StatsQueryService) GetTrending(ctx context.Context, period entity.TrendingPeriod) (*entity.TrendingSnapshot, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, period)
	}

	snapshot, err := s.trendingRepo.GetSnapshot(ctx, period)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return &entity.TrendingSnapshot{
				Period:  period,
				Entries: []entity.TrendingEntry{},
			}, nil
		}
		return nil, fmt.Errorf("failed to get trending snapshot: %w", err)
	}

	return snapshot, nil
}

// GetDeveloperSummary собирает сводку по всем играм разработчика
// Взвешенное среднее: Σ(avg_i * count_i) / Σ count_i, 0 если отзывов нет.
// Игры без агрегата учитываются только в общем количестве игр
func (s *StatsQueryService) GetDeveloperSummary(ctx context.Context, developerID string) (*entity.DeveloperSummary, error) {
	games, err := s.catalogClient.GetGamesByDeveloper(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get developer games: %w", err)
	}

	summary := &entity.DeveloperSummary{
		DeveloperID: developerID,
		GamesTotal:  len(games),
	}

	var weightedSum float64

	for _, game := range games {
		stats, err := s.gameStatsRepo.Get(ctx, game.ID)
		if err != nil {
			if errors.Is(err, repository.ErrStatsNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get stats for game %s: %w", game.ID, err)
		}

		if stats.TotalReviews == 0 {
			continue
		}

		summary.GamesWithReview++
		summary.TotalReviews += stats.TotalReviews
		weightedSum += stats.AverageRating * float64(stats.TotalReviews)
	}

	if summary.TotalReviews > 0 {
		summary.WeightedAverage = weightedSum / float64(summary.TotalReviews)
	}

	return summary, nil
}

// RetentionService удаляет дневные агрегаты за пределами окна хранения
// Запускается планировщиком раз в сутки
type RetentionService struct {
	dailyStatsRepo repository.DailyStatsRepository
	retentionDays  int
}

// NewRetentionService создает сервис очистки
func NewRetentionService(dailyStatsRepo repository.DailyStatsRepository, retentionDays int) *RetentionService {
	if retentionDays <= 0 {
		retentionDays = 60
	}

	return &RetentionService{
		dailyStatsRepo: dailyStatsRepo,
		retentionDays:  retentionDays,
	}
}

// PruneDailyStats удаляет записи старше окна хранения
func (s *RetentionService) PruneDailyStats(ctx context.Context) (int64, error) {
	cutoff := entity.DateKey(time.Now().UTC().AddDate(0, 0, -s.retentionDays))

	deleted, err := s.dailyStatsRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune daily stats: %w", err)
	}

	return deleted, nil
}
