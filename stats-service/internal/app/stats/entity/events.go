package entity

import "time"

// Типы событий жизненного цикла отзыва (топик review_events)
const (
	EventReviewCreated = "REVIEW_CREATED"
	EventReviewUpdated = "REVIEW_UPDATED"
	EventReviewDeleted = "REVIEW_DELETED"
)

// ReviewEvent - событие отзыва от Review Service
// Для REVIEW_UPDATED заполняются OldRating и NewRating,
// для остальных типов используется Rating
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ReviewID  string    `json:"review_id"`
	GameID    string    `json:"game_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating,omitempty"`
	OldRating int       `json:"old_rating,omitempty"`
	NewRating int       `json:"new_rating,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TrendingComputedEvent - уведомление о завершённом пересчёте трендов
// Публикуется в топик trending_events для downstream-подписчиков
type TrendingComputedEvent struct {
	EventType  string         `json:"event_type"` // TRENDING_UPDATED
	Periods    map[string]int `json:"periods"`    // период -> размер снапшота
	GamesTotal int            `json:"games_total"`
	Skipped    int            `json:"skipped"`
	ComputedAt time.Time      `json:"computed_at"`
}

// EventTrendingUpdated - тип события пересчёта
const EventTrendingUpdated = "TRENDING_UPDATED"
