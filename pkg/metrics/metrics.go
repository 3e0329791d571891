package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="stats"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// MongoDB Метрики
// =============================================================================

// MongoOperationDuration - время выполнения операций с MongoDB
var MongoOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mongo_operation_duration_seconds",
		Help:    "Duration of MongoDB operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "collection"},
)

// MongoErrors - счётчик ошибок MongoDB
var MongoErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mongo_errors_total",
		Help: "Total number of MongoDB errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Database Метрики (PostgreSQL, dead-letter таблица)
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"}, // operation: get, set, del
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaConsumeDuration - время обработки сообщения
var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Business Метрики (Stats Service)
// =============================================================================

// ReviewEventsProcessed - обработанные события отзывов
// type: REVIEW_CREATED / REVIEW_UPDATED / REVIEW_DELETED
// status: success, invalid, conflict, failed
var ReviewEventsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stats_review_events_processed_total",
		Help: "Total number of review events applied to aggregates",
	},
	[]string{"type", "status"},
)

// AggregateConflictRetries - повторы оптимистичной записи агрегатов
var AggregateConflictRetries = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "stats_aggregate_conflict_retries_total",
		Help: "Total number of optimistic write retries caused by version conflicts",
	},
)

// FailedEventsParked - события, отправленные в dead-letter таблицу
var FailedEventsParked = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stats_failed_events_parked_total",
		Help: "Total number of review events parked for reprocessing",
	},
	[]string{"reason"}, // validation, conflict
)

// TrendingRuns - запуски пересчёта трендов
var TrendingRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stats_trending_runs_total",
		Help: "Total number of trending computation runs",
	},
	[]string{"status"}, // success, partial, failed
)

// TrendingRunDuration - длительность полного пересчёта трендов
var TrendingRunDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "stats_trending_run_duration_seconds",
		Help:    "Duration of a full trending computation run",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	},
)

// TrendingGamesRanked - количество игр в снапшоте по периодам
var TrendingGamesRanked = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "stats_trending_games_ranked",
		Help: "Number of games in the last published trending snapshot",
	},
	[]string{"period"}, // daily, weekly, monthly
)

// TrendingGamesSkipped - игры, пропущенные в последнем запуске из-за ошибок
var TrendingGamesSkipped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "stats_trending_games_skipped_total",
		Help: "Total number of games skipped during trending runs due to errors",
	},
)
