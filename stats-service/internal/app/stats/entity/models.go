package entity

import (
	"time"

	"github.com/google/uuid"
)

// RatingDistribution - гистограмма оценок: пять счётчиков, по одному на звезду 1..5
// Индекс i хранит количество отзывов с оценкой i+1
type RatingDistribution [5]int64

// Add увеличивает счётчик для оценки rating (1..5)
func (d *RatingDistribution) Add(rating int) {
	if rating >= 1 && rating <= 5 {
		d[rating-1]++
	}
}

// Remove уменьшает счётчик для оценки rating, не опускаясь ниже нуля
// Защита от повторной доставки и нарушенного порядка событий
func (d *RatingDistribution) Remove(rating int) {
	if rating >= 1 && rating <= 5 && d[rating-1] > 0 {
		d[rating-1]--
	}
}

// Total возвращает сумму всех корзин гистограммы
func (d RatingDistribution) Total() int64 {
	var total int64
	for _, n := range d {
		total += n
	}
	return total
}

// WeightedSum возвращает сумму оценок: Σ bucket_i * i
func (d RatingDistribution) WeightedSum() int64 {
	var sum int64
	for i, n := range d {
		sum += n * int64(i+1)
	}
	return sum
}

// Average считает среднюю оценку из гистограммы
// Всегда выводится из корзин, а не накапливается инкрементально - так не бывает дрейфа
func (d RatingDistribution) Average() float64 {
	total := d.Total()
	if total == 0 {
		return 0
	}
	return float64(d.WeightedSum()) / float64(total)
}

// GameStats - агрегат оценок одной игры
// Version используется для условной записи (optimistic concurrency):
// запись проходит только если версия в базе не изменилась с момента чтения
type GameStats struct {
	GameID             string             `json:"game_id" bson:"_id"`
	TotalReviews       int64              `json:"total_reviews" bson:"total_reviews"`
	RatingDistribution RatingDistribution `json:"rating_distribution" bson:"rating_distribution"`
	AverageRating      float64            `json:"average_rating" bson:"average_rating"`
	LastUpdated        time.Time          `json:"last_updated" bson:"last_updated"`
	Version            int64              `json:"-" bson:"version"`
}

// NewGameStats создает пустой агрегат для игры
// Version=0 означает, что документа ещё нет в базе (запись пойдет через insert)
func NewGameStats(gameID string) *GameStats {
	return &GameStats{GameID: gameID}
}

// DailyStats - агрегат оценок одной игры за один календарный день (UTC)
// Date хранится строкой формата 2006-01-02, ключ документа - пара (game_id, date)
type DailyStats struct {
	GameID             string             `json:"game_id" bson:"game_id"`
	Date               string             `json:"date" bson:"date"`
	ReviewCount        int64              `json:"review_count" bson:"review_count"`
	RatingSum          int64              `json:"rating_sum" bson:"rating_sum"`
	AverageRating      float64            `json:"average_rating" bson:"average_rating"`
	RatingDistribution RatingDistribution `json:"rating_distribution" bson:"rating_distribution"`
	Version            int64              `json:"-" bson:"version"`
}

// NewDailyStats создает пустой дневной агрегат
func NewDailyStats(gameID string, date string) *DailyStats {
	return &DailyStats{GameID: gameID, Date: date}
}

// DateLayout - формат ключа дневной статистики
const DateLayout = "2006-01-02"

// DateKey возвращает ключ календарного дня (UTC) для момента времени
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// TrendingPeriod - окно пересчёта трендов
type TrendingPeriod string

const (
	PeriodDaily   TrendingPeriod = "daily"
	PeriodWeekly  TrendingPeriod = "weekly"
	PeriodMonthly TrendingPeriod = "monthly"
)

// Periods - все периоды в порядке пересчёта
var Periods = []TrendingPeriod{PeriodDaily, PeriodWeekly, PeriodMonthly}

// LookbackDays возвращает глубину окна периода в днях
func (p TrendingPeriod) LookbackDays() int {
	switch p {
	case PeriodDaily:
		return 1
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	default:
		return 0
	}
}

// Valid проверяет, что период известен
func (p TrendingPeriod) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// TrendingEntry - одна позиция рейтинга
// Title и CoverURL денормализованы из Catalog Service для отображения
type TrendingEntry struct {
	GameID            string  `json:"game_id"`
	Title             string  `json:"title"`
	CoverURL          string  `json:"cover_url"`
	AverageRating     float64 `json:"average_rating"`
	RecentReviewCount int64   `json:"recent_review_count"`
	Score             float64 `json:"score"`
	Rank              int     `json:"rank"`
}

// TrendingSnapshot - полный результат одного пересчёта для одного периода
// Снапшот всегда заменяется целиком, между запусками не изменяется
type TrendingSnapshot struct {
	Period     TrendingPeriod  `json:"period"`
	Entries    []TrendingEntry `json:"entries"`
	ComputedAt time.Time       `json:"computed_at"`
}

// GameInfo - карточка игры из Catalog Service
type GameInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CoverURL    string `json:"cover_url"`
	DeveloperID string `json:"developer_id"`
}

// Статусы записей dead-letter таблицы
const (
	FailedEventStatusPending     = "pending"
	FailedEventStatusReprocessed = "reprocessed"
)

// FailedReviewEvent - событие отзыва, которое не удалось применить
// (невалидная оценка или исчерпанные повторы условной записи)
// Хранится в PostgreSQL до ручной или плановой повторной обработки
type FailedReviewEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventType string    `json:"event_type" gorm:"not null"`
	GameID    string    `json:"game_id" gorm:"index;not null"`
	Payload   string    `json:"payload" gorm:"type:jsonb;not null"`
	Reason    string    `json:"reason" gorm:"not null"`
	Status    string    `json:"status" gorm:"index;not null;default:pending"`
	FailedAt  time.Time `json:"failed_at" gorm:"not null"`
}

// TableName задает имя таблицы для GORM
func (FailedReviewEvent) TableName() string {
	return "failed_review_events"
}
