package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит все настройки приложения Stats Service
// Включает конфигурацию для MongoDB, Redis, PostgreSQL, Kafka и Catalog Service
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Catalog   CatalogConfig
	JWT       JWTConfig
	Trending  TrendingConfig
	Retention RetentionConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8086)
}

// MongoDBConfig - настройки подключения к MongoDB
// Хранит агрегаты игр и дневную статистику
type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
}

// RedisConfig - настройки подключения к Redis
// Используется для хранения снапшотов трендов с TTL
type RedisConfig struct {
	Host     string        // Хост Redis
	Port     string        // Порт Redis
	Password string        // Пароль Redis
	DB       int           // Номер БД Redis (обычно 0)
	TTL      time.Duration // TTL снапшота трендов, страховка от устаревших данных
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Используется для dead-letter таблицы необработанных событий
type DatabaseConfig struct {
	Host     string // Хост PostgreSQL
	Port     string // Порт PostgreSQL
	User     string // Имя пользователя БД
	Password string // Пароль БД
	DBName   string // Имя базы данных (stats_service)
	SSLMode  string // Режим SSL (disable/require/verify-full)
}

// KafkaConfig - настройки Kafka
// Слушает топик review_events и публикует TRENDING_UPDATED в trending_events
type KafkaConfig struct {
	Brokers       []string // Список брокеров Kafka (формат: host:port)
	ReviewsTopic  string   // Топик событий отзывов (review_events)
	TrendingTopic string   // Топик уведомлений о пересчёте трендов (trending_events)
	GroupID       string   // ID группы потребителей для распределения нагрузки
	MinBytes      int      // Минимум байт для fetch запроса
	MaxBytes      int      // Максимум байт для fetch запроса
}

// CatalogConfig - настройки клиента Catalog Service
// Используется для получения названий и обложек игр при пересчёте трендов
type CatalogConfig struct {
	URL     string // Базовый URL Catalog Service
	Timeout int    // Таймаут запроса в секундах
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов (должен совпадать с Auth Service)
}

// TrendingConfig - настройки пересчёта трендов
type TrendingConfig struct {
	Schedule       string  // Расписание пересчёта (по умолчанию каждый час)
	RecencyWeight  float64 // Вес недавних отзывов
	QualityWeight  float64 // Вес средней оценки
	VolumeWeight   float64 // Вес общего количества отзывов (логарифмический)
	MaxEntries     int     // Размер топа на период
	Workers        int     // Количество воркеров при сборе статистики игр
	TimeoutMinutes int     // Дедлайн одного прогона в минутах
}

// RetentionConfig - настройки очистки дневной статистики
type RetentionConfig struct {
	Days     int    // Сколько дней дневной статистики хранить
	Schedule string // Расписание очистки (по умолчанию ночью)
}

// Load загружает конфигурацию из переменных окружения
// Возвращает ошибку, если не удалось распарсить значения
func Load() (*Config, error) {
	// TTL снапшота трендов (по умолчанию 2 часа - два пропущенных прогона)
	ttlMinutes := getEnvInt("REDIS_TRENDING_TTL_MINUTES", 120)

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8086"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "stats_service"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 3), // Отдельная БД для снапшотов трендов
			TTL:      time.Duration(ttlMinutes) * time.Minute,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5434"), // Порт PostgreSQL для Stats Service
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "stats_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ReviewsTopic:  getEnv("KAFKA_REVIEWS_TOPIC", "review_events"),
			TrendingTopic: getEnv("KAFKA_TRENDING_TOPIC", "trending_events"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "stats-service-group"),
			MinBytes:      getEnvInt("KAFKA_MIN_BYTES", 1),    // 1 byte minimum
			MaxBytes:      getEnvInt("KAFKA_MAX_BYTES", 10e6), // 10MB maximum
		},
		Catalog: CatalogConfig{
			URL:     getEnv("CATALOG_SERVICE_URL", "http://localhost:8082"),
			Timeout: getEnvInt("CATALOG_TIMEOUT", 10),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Trending: TrendingConfig{
			// По умолчанию пересчитываем тренды в начале каждого часа
			Schedule:       getEnv("CRON_TRENDING", "0 * * * *"),
			RecencyWeight:  getEnvFloat("TRENDING_RECENCY_WEIGHT", 2.0),
			QualityWeight:  getEnvFloat("TRENDING_QUALITY_WEIGHT", 10.0),
			VolumeWeight:   getEnvFloat("TRENDING_VOLUME_WEIGHT", 5.0),
			MaxEntries:     getEnvInt("TRENDING_MAX_ENTRIES", 50),
			Workers:        getEnvInt("TRENDING_WORKERS", 8),
			TimeoutMinutes: getEnvInt("TRENDING_TIMEOUT_MINUTES", 5),
		},
		Retention: RetentionConfig{
			Days: getEnvInt("DAILY_RETENTION_DAYS", 60),
			// Чистим дневную статистику ночью, вне пиковой нагрузки
			Schedule: getEnv("CRON_RETENTION", "30 3 * * *"),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес HTTP сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
// Используется для гибкой конфигурации через environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает значение переменной окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает значение переменной окружения как float64
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
