package processor

import (
	"context"
	"time"

	"gamepulse/pkg/logger"
	"gamepulse/stats-service/internal/app/stats/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler - единственный владелец расписаний сервиса:
// периодический пересчёт трендов и ночная очистка дневных агрегатов.
// Глобального состояния нет, жизненный цикл явный (Start/Stop)
type CronScheduler struct {
	cron         *cron.Cron
	trendingSvc  service.TrendingServiceInterface
	retentionSvc service.RetentionServiceInterface
}

// NewCronScheduler создает планировщик
func NewCronScheduler(
	trendingSvc service.TrendingServiceInterface,
	retentionSvc service.RetentionServiceInterface,
) *CronScheduler {
	return &CronScheduler{
		cron:         cron.New(),
		trendingSvc:  trendingSvc,
		retentionSvc: retentionSvc,
	}
}

// Start регистрирует задачи и запускает планировщик
// Перед стартом выполняется немедленный пересчёт трендов, чтобы
// после деплоя снапшоты не были пустыми до первого тика
func (s *CronScheduler) Start(ctx context.Context, trendingSchedule, retentionSchedule string) error {
	logger.Info().
		Str("trending_schedule", trendingSchedule).
		Str("retention_schedule", retentionSchedule).
		Msg("Starting cron scheduler")

	if _, err := s.cron.AddFunc(trendingSchedule, func() {
		s.runTrending(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(retentionSchedule, func() {
		s.runRetention(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	logger.Info().Msg("Performing initial trending computation...")
	s.runTrending(ctx)

	return nil
}

// Stop останавливает планировщик, дождавшись завершения текущих задач
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

// GetEntries возвращает зарегистрированные задачи
func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *CronScheduler) runTrending(ctx context.Context) {
	start := time.Now()

	summary, err := s.trendingSvc.ComputeTrending(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Trending computation failed")
		return
	}

	logger.Info().
		Int("games_total", summary.GamesTotal).
		Int("skipped", summary.Skipped).
		Float64("duration_s", time.Since(start).Seconds()).
		Msg("Trending computation run completed")
}

func (s *CronScheduler) runRetention(ctx context.Context) {
	deleted, err := s.retentionSvc.PruneDailyStats(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Daily stats retention failed")
		return
	}

	logger.Info().
		Int64("deleted", deleted).
		Msg("Daily stats retention completed")
}
