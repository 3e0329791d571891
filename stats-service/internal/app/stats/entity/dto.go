package entity

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DailyStatsResponse - ответ со списком дневных агрегатов
// Записи отсортированы хронологически (от старых к новым)
type DailyStatsResponse struct {
	GameID string       `json:"game_id"`
	Days   []DailyStats `json:"days"`
	Total  int          `json:"total"`
}

// DeveloperSummary - сводка по всем играм одного разработчика
// WeightedAverage = Σ(avg_i * count_i) / Σ count_i, 0 если отзывов нет
type DeveloperSummary struct {
	DeveloperID     string  `json:"developer_id"`
	GamesTotal      int     `json:"games_total"`
	GamesWithReview int     `json:"games_with_reviews"`
	TotalReviews    int64   `json:"total_reviews"`
	WeightedAverage float64 `json:"weighted_average"`
}

// ReprocessResult - итог повторной обработки dead-letter событий
type ReprocessResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// TrendingRunSummary - итог одного пересчёта трендов
type TrendingRunSummary struct {
	GamesTotal   int            `json:"games_total"`
	Skipped      int            `json:"skipped"`
	Published    map[string]int `json:"published"` // период -> размер снапшота
	FailedWrites []string       `json:"failed_writes,omitempty"`
}
