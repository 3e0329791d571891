package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamepulse/pkg/logger"
	"gamepulse/pkg/metrics"
	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/repository"
)

// AggregationService поддерживает GameStats и DailyStats в соответствии
// с текущим множеством живых отзывов, не пересканируя сами отзывы.
// Каждая операция - один атомарный цикл чтение-изменение-запись по одной
// игре (и одной паре игра+день); конкурентные события разных игр не
// блокируют друг друга, события одной игры сериализуются условной записью.
// Записи двух агрегатов не транзакционны: при повторной доставке события
// после частичного сбоя (GameStats записан, DailyStats нет) мутация
// GameStats применится ещё раз
type AggregationService struct {
	gameStatsRepo  repository.GameStatsRepository
	dailyStatsRepo repository.DailyStatsRepository
	failedRepo     repository.FailedEventRepository
	maxRetries     int
	retryBackoff   time.Duration
}

// NewAggregationService создает сервис агрегации с внедрением зависимостей
func NewAggregationService(
	gameStatsRepo repository.GameStatsRepository,
	dailyStatsRepo repository.DailyStatsRepository,
	failedRepo repository.FailedEventRepository,
	maxRetries int,
	retryBackoff time.Duration,
) *AggregationService {
	if maxRetries <= 0 {
		maxRetries = 5
	}

	return &AggregationService{
		gameStatsRepo:  gameStatsRepo,
		dailyStatsRepo: dailyStatsRepo,
		failedRepo:     failedRepo,
		maxRetries:     maxRetries,
		retryBackoff:   retryBackoff,
	}
}

// ProcessEvent применяет событие отзыва к агрегатам
func (s *AggregationService) ProcessEvent(ctx context.Context, event *entity.ReviewEvent) error {
	switch event.EventType {
	case entity.EventReviewCreated:
		return s.OnReviewCreated(ctx, event.GameID, event.Rating, event.Timestamp)
	case entity.EventReviewUpdated:
		return s.OnReviewUpdated(ctx, event.GameID, event.OldRating, event.NewRating, event.Timestamp)
	case entity.EventReviewDeleted:
		return s.OnReviewDeleted(ctx, event.GameID, event.Rating, event.Timestamp)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType)
	}
}

// OnReviewCreated учитывает новый отзыв в агрегате игры и дневном агрегате
func (s *AggregationService) OnReviewCreated(ctx context.Context, gameID string, rating int, occurredAt time.Time) error {
	if err := validateRating(rating); err != nil {
		return err
	}

	if err := s.applyGameStats(ctx, gameID, func(d *entity.RatingDistribution) {
		d.Add(rating)
	}); err != nil {
		return err
	}

	return s.applyDailyStats(ctx, gameID, entity.DateKey(occurredAt), true, func(d *entity.RatingDistribution) {
		d.Add(rating)
	})
}

// OnReviewUpdated переносит отзыв между корзинами гистограммы
// Количество отзывов не меняется. Если дневной агрегат за эту дату
// не хранится (отзыв старше окна хранения), обновляется только GameStats
func (s *AggregationService) OnReviewUpdated(ctx context.Context, gameID string, oldRating, newRating int, occurredAt time.Time) error {
	if err := validateRating(oldRating); err != nil {
		return err
	}
	if err := validateRating(newRating); err != nil {
		return err
	}

	// Идемпотентный no-op: хранимые агрегаты не трогаем
	if oldRating == newRating {
		return nil
	}

	move := func(d *entity.RatingDistribution) {
		d.Remove(oldRating)
		d.Add(newRating)
	}

	if err := s.applyGameStats(ctx, gameID, move); err != nil {
		return err
	}

	return s.applyDailyStats(ctx, gameID, entity.DateKey(occurredAt), false, move)
}

// OnReviewDeleted убирает отзыв из агрегатов
// Счётчики не опускаются ниже нуля - защита от повторной доставки
func (s *AggregationService) OnReviewDeleted(ctx context.Context, gameID string, rating int, occurredAt time.Time) error {
	if err := validateRating(rating); err != nil {
		return err
	}

	remove := func(d *entity.RatingDistribution) {
		d.Remove(rating)
	}

	if err := s.applyGameStats(ctx, gameID, remove); err != nil {
		return err
	}

	return s.applyDailyStats(ctx, gameID, entity.DateKey(occurredAt), false, remove)
}

// applyGameStats выполняет цикл чтение-изменение-условная запись для GameStats
// Все производные поля выводятся из гистограммы после мутации,
// поэтому инвариант sum(buckets) == total_reviews не может нарушиться
func (s *AggregationService) applyGameStats(ctx context.Context, gameID string, mutate func(*entity.RatingDistribution)) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		stats, err := s.gameStatsRepo.Get(ctx, gameID)
		if err != nil {
			if !errors.Is(err, repository.ErrStatsNotFound) {
				return fmt.Errorf("failed to read game stats: %w", err)
			}
			// Первый отзыв игры - агрегат создается лениво
			stats = entity.NewGameStats(gameID)
		}

		mutate(&stats.RatingDistribution)
		stats.TotalReviews = stats.RatingDistribution.Total()
		stats.AverageRating = stats.RatingDistribution.Average()
		stats.LastUpdated = time.Now().UTC()

		err = s.gameStatsRepo.Save(ctx, stats)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return fmt.Errorf("failed to save game stats: %w", err)
		}

		metrics.AggregateConflictRetries.Inc()
		logger.Debug().
			Str("game_id", gameID).
			Int("attempt", attempt).
			Msg("Game stats version conflict, retrying")

		s.backoff(ctx, attempt)
	}

	return fmt.Errorf("game %s: %w", gameID, ErrConflictNotResolved)
}

// applyDailyStats выполняет тот же цикл для дневного агрегата
// При createIfMissing=false отсутствие документа - валидный no-op
func (s *AggregationService) applyDailyStats(ctx context.Context, gameID, date string, createIfMissing bool, mutate func(*entity.RatingDistribution)) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		stats, err := s.dailyStatsRepo.Get(ctx, gameID, date)
		if err != nil {
			if !errors.Is(err, repository.ErrStatsNotFound) {
				return fmt.Errorf("failed to read daily stats: %w", err)
			}
			if !createIfMissing {
				return nil
			}
			stats = entity.NewDailyStats(gameID, date)
		}

		mutate(&stats.RatingDistribution)
		stats.ReviewCount = stats.RatingDistribution.Total()
		stats.RatingSum = stats.RatingDistribution.WeightedSum()
		stats.AverageRating = stats.RatingDistribution.Average()

		err = s.dailyStatsRepo.Save(ctx, stats)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return fmt.Errorf("failed to save daily stats: %w", err)
		}

		metrics.AggregateConflictRetries.Inc()
		logger.Debug().
			Str("game_id", gameID).
			Str("date", date).
			Int("attempt", attempt).
			Msg("Daily stats version conflict, retrying")

		s.backoff(ctx, attempt)
	}

	return fmt.Errorf("game %s date %s: %w", gameID, date, ErrConflictNotResolved)
}

// backoff линейно увеличивает паузу между повторами, уважая отмену контекста
func (s *AggregationService) backoff(ctx context.Context, attempt int) {
	if s.retryBackoff <= 0 {
		return
	}

	select {
	case <-time.After(time.Duration(attempt) * s.retryBackoff):
	case <-ctx.Done():
	}
}

// ReprocessFailedEvents повторно применяет события из dead-letter таблицы
// Успешные помечаются reprocessed, неуспешные остаются pending
func (s *AggregationService) ReprocessFailedEvents(ctx context.Context, limit int) (*entity.ReprocessResult, error) {
	events, err := s.failedRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}

	result := &entity.ReprocessResult{}

	for _, failed := range events {
		result.Processed++

		var event entity.ReviewEvent
		if err := json.Unmarshal([]byte(failed.Payload), &event); err != nil {
			logger.Error().
				Err(err).
				Str("failed_event_id", failed.ID.String()).
				Msg("Failed to unmarshal dead-letter payload")
			result.Failed++
			continue
		}

		if err := s.ProcessEvent(ctx, &event); err != nil {
			logger.Warn().
				Err(err).
				Str("failed_event_id", failed.ID.String()).
				Str("game_id", failed.GameID).
				Msg("Dead-letter event still failing")
			result.Failed++
			continue
		}

		if err := s.failedRepo.MarkReprocessed(ctx, failed.ID.String()); err != nil {
			logger.Error().
				Err(err).
				Str("failed_event_id", failed.ID.String()).
				Msg("Failed to mark event reprocessed")
			result.Failed++
			continue
		}

		result.Succeeded++
	}

	return result, nil
}

// validateRating отклоняет оценку вне диапазона 1..5 до любой мутации
func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return nil
}
