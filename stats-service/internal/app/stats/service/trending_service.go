package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gamepulse/pkg/logger"
	"gamepulse/pkg/metrics"
	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/infrastructure"
	infrahttp "gamepulse/stats-service/internal/app/stats/infrastructure/http"
	"gamepulse/stats-service/internal/app/stats/repository"
)

// TrendingWeights - веса слагаемых формулы популярности
// Recency доминирует и поднимает недавно активные игры, Quality поощряет
// высокие оценки, Volume дает логарифмический бонус за накопленную историю
type TrendingWeights struct {
	Recency float64
	Quality float64
	Volume  float64
}

// DefaultTrendingWeights - веса из продуктовой настройки
var DefaultTrendingWeights = TrendingWeights{Recency: 2, Quality: 10, Volume: 5}

// TrendingService считает ранжированные списки игр по окнам
// DAILY/WEEKLY/MONTHLY и публикует их как целиком заменяемые снапшоты.
// Пересчёт только читает агрегаты и никогда их не изменяет
type TrendingService struct {
	gameStatsRepo  repository.GameStatsRepository
	dailyStatsRepo repository.DailyStatsRepository
	trendingRepo   repository.TrendingRepository
	catalogClient  infrastructure.CatalogServiceClient
	publisher      infrastructure.MessagePublisher
	weights        TrendingWeights
	maxEntries     int
	workerCount    int
	computeTimeout time.Duration
}

// NewTrendingService создает сервис пересчёта трендов
func NewTrendingService(
	gameStatsRepo repository.GameStatsRepository,
	dailyStatsRepo repository.DailyStatsRepository,
	trendingRepo repository.TrendingRepository,
	catalogClient infrastructure.CatalogServiceClient,
	publisher infrastructure.MessagePublisher,
	weights TrendingWeights,
	maxEntries int,
	workerCount int,
	computeTimeout time.Duration,
) *TrendingService {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	if workerCount <= 0 {
		workerCount = 8
	}
	if computeTimeout <= 0 {
		computeTimeout = 5 * time.Minute
	}

	return &TrendingService{
		gameStatsRepo:  gameStatsRepo,
		dailyStatsRepo: dailyStatsRepo,
		trendingRepo:   trendingRepo,
		catalogClient:  catalogClient,
		publisher:      publisher,
		weights:        weights,
		maxEntries:     maxEntries,
		workerCount:    workerCount,
		computeTimeout: computeTimeout,
	}
}

// gameTrendResult - результат обработки одной игры воркером
type gameTrendResult struct {
	stats    entity.GameStats
	recent   map[entity.TrendingPeriod]int64
	title    string
	coverURL string
	err      error
}

// ComputeTrending выполняет один полный пересчёт: для каждой игры с отзывами
// считает недавнюю активность по окнам, затем для каждого периода собирает,
// сортирует и публикует снапшот. Ошибка одной игры не прерывает запуск -
// игра пропускается с предупреждением. Ошибка записи одного периода
// не блокирует запись остальных
func (s *TrendingService) ComputeTrending(ctx context.Context) (*entity.TrendingRunSummary, error) {
	start := time.Now()
	defer func() {
		metrics.TrendingRunDuration.Observe(time.Since(start).Seconds())
	}()

	// Дедлайн ограничивает только обсчёт игр. Запись снапшотов идет
	// по родительскому контексту: истекший дедлайн не должен блокировать
	// публикацию частичных результатов уже обсчитанных игр
	computeCtx, cancel := context.WithTimeout(ctx, s.computeTimeout)
	defer cancel()

	games, err := s.gameStatsRepo.ListActive(computeCtx)
	if err != nil {
		metrics.TrendingRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}

	now := time.Now().UTC()
	results := s.collectGameTrends(computeCtx, games, now)

	summary := &entity.TrendingRunSummary{
		GamesTotal: len(games),
		Published:  make(map[string]int),
	}

	processed := make([]gameTrendResult, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			summary.Skipped++
			metrics.TrendingGamesSkipped.Inc()
			logger.Warn().
				Err(r.err).
				Str("game_id", r.stats.GameID).
				Msg("Skipping game in trending run")
			continue
		}
		processed = append(processed, r)
	}

	for _, period := range entity.Periods {
		snapshot := s.buildSnapshot(period, processed, now)

		if err := s.trendingRepo.SaveSnapshot(ctx, snapshot); err != nil {
			summary.FailedWrites = append(summary.FailedWrites, string(period))
			logger.Error().
				Err(err).
				Str("period", string(period)).
				Msg("Failed to publish trending snapshot")
			continue
		}

		summary.Published[string(period)] = len(snapshot.Entries)
		metrics.TrendingGamesRanked.WithLabelValues(string(period)).Set(float64(len(snapshot.Entries)))
	}

	status := "success"
	if summary.Skipped > 0 || len(summary.FailedWrites) > 0 {
		status = "partial"
	}
	metrics.TrendingRuns.WithLabelValues(status).Inc()

	s.publishRunEvent(summary, now)

	logger.Info().
		Int("games_total", summary.GamesTotal).
		Int("skipped", summary.Skipped).
		Interface("published", summary.Published).
		Float64("duration_s", time.Since(start).Seconds()).
		Msg("Trending computation finished")

	return summary, nil
}

// collectGameTrends обсчитывает игры параллельно пулом воркеров
// Работы независимы: общих изменяемых данных нет до финальной записи.
// Игры, не успевшие до дедлайна, возвращаются с ошибкой контекста
// и будут пропущены в этом запуске
func (s *TrendingService) collectGameTrends(ctx context.Context, games []entity.GameStats, now time.Time) []gameTrendResult {
	if len(games) == 0 {
		return nil
	}

	workers := s.workerCount
	if workers > len(games) {
		workers = len(games)
	}

	jobs := make(chan entity.GameStats, len(games))
	out := make(chan gameTrendResult, len(games))

	for w := 0; w < workers; w++ {
		go func() {
			for game := range jobs {
				out <- s.processGame(ctx, game, now)
			}
		}()
	}

	for _, game := range games {
		jobs <- game
	}
	close(jobs)

	results := make([]gameTrendResult, 0, len(games))
	for i := 0; i < len(games); i++ {
		results = append(results, <-out)
	}

	return results
}

// processGame считает недавнюю активность одной игры по всем окнам
// и подтягивает карточку из каталога. Отсутствие игры в каталоге
// не считается ошибкой - подставляются пустые строки
func (s *TrendingService) processGame(ctx context.Context, game entity.GameStats, now time.Time) gameTrendResult {
	result := gameTrendResult{stats: game}

	if err := ctx.Err(); err != nil {
		result.err = err
		return result
	}

	days, err := s.dailyStatsRepo.GetRecent(ctx, game.GameID, entity.PeriodMonthly.LookbackDays())
	if err != nil {
		result.err = fmt.Errorf("failed to read recent daily stats: %w", err)
		return result
	}

	result.recent = make(map[entity.TrendingPeriod]int64, len(entity.Periods))
	for _, period := range entity.Periods {
		// Окно периода - N последних календарных дней (UTC), включая сегодня
		cutoff := entity.DateKey(now.AddDate(0, 0, -(period.LookbackDays() - 1)))

		var count int64
		for _, day := range days {
			if day.Date >= cutoff {
				count += day.ReviewCount
			}
		}
		result.recent[period] = count
	}

	info, err := s.catalogClient.GetGame(ctx, game.GameID)
	if err != nil {
		if !errors.Is(err, infrahttp.ErrGameNotFound) {
			logger.Warn().
				Err(err).
				Str("game_id", game.GameID).
				Msg("Catalog lookup failed, publishing without title")
		}
	} else {
		result.title = info.Title
		result.coverURL = info.CoverURL
	}

	return result
}

// buildSnapshot собирает снапшот одного периода
// Игры без недавних отзывов в окне периода исключаются полностью,
// а не ранжируются с нулевой активностью
func (s *TrendingService) buildSnapshot(period entity.TrendingPeriod, results []gameTrendResult, now time.Time) *entity.TrendingSnapshot {
	entries := make([]entity.TrendingEntry, 0, len(results))

	for _, r := range results {
		recent := r.recent[period]
		if recent == 0 {
			continue
		}

		entries = append(entries, entity.TrendingEntry{
			GameID:            r.stats.GameID,
			Title:             r.title,
			CoverURL:          r.coverURL,
			AverageRating:     r.stats.AverageRating,
			RecentReviewCount: recent,
			Score:             s.score(recent, r.stats.AverageRating, r.stats.TotalReviews),
		})
	}

	sortEntries(entries)

	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &entity.TrendingSnapshot{
		Period:     period,
		Entries:    entries,
		ComputedAt: now,
	}
}

// score - формула популярности
// score = recent*W_recency + avg*W_quality + log10(total+1)*W_volume
func (s *TrendingService) score(recentCount int64, averageRating float64, totalReviews int64) float64 {
	return float64(recentCount)*s.weights.Recency +
		averageRating*s.weights.Quality +
		math.Log10(float64(totalReviews)+1)*s.weights.Volume
}

// sortEntries сортирует по убыванию score
// При равных score порядок детерминирован: по возрастанию game_id
func sortEntries(entries []entity.TrendingEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].GameID < entries[j].GameID
	})
}

// publishRunEvent отправляет TRENDING_UPDATED в Kafka
// Публикация best-effort: снапшоты уже записаны, проблемы с Kafka не критичны
func (s *TrendingService) publishRunEvent(summary *entity.TrendingRunSummary, computedAt time.Time) {
	if s.publisher == nil {
		return
	}

	event := entity.TrendingComputedEvent{
		EventType:  entity.EventTrendingUpdated,
		Periods:    summary.Published,
		GamesTotal: summary.GamesTotal,
		Skipped:    summary.Skipped,
		ComputedAt: computedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal trending event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.publisher.PublishMessage(ctx, entity.EventTrendingUpdated, data); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish trending event")
	}
}
