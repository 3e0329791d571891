package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gamepulse/pkg/logger"
	"gamepulse/stats-service/internal/app/stats/config"
	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/handler"
	catalogclient "gamepulse/stats-service/internal/app/stats/infrastructure/http"
	"gamepulse/stats-service/internal/app/stats/infrastructure/messaging"
	"gamepulse/stats-service/internal/app/stats/processor"
	"gamepulse/stats-service/internal/app/stats/repository"
	"gamepulse/stats-service/internal/app/stats/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init("stats-service", logLevel)

	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЕ К MONGODB ===
	// MongoDB хранит агрегаты игр и дневную статистику
	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().
		Str("database", cfg.MongoDB.Database).
		Msg("Connected to MongoDB")

	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis хранит снапшоты трендов
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Connected to Redis")

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// PostgreSQL хранит dead-letter таблицу необработанных событий
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	logger.Info().
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	if err := db.AutoMigrate(&entity.FailedReviewEvent{}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate failed_review_events table")
	}

	// === ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ ===
	gameStatsRepo := repository.NewGameStatsRepository(mongoDB)
	dailyStatsRepo := repository.NewDailyStatsRepository(mongoDB)
	trendingRepo := repository.NewTrendingRepository(redisClient, cfg.Redis.TTL)
	failedRepo := repository.NewFailedEventRepository(db)
	logger.Info().Msg("Repositories initialized")

	// === ИНИЦИАЛИЗАЦИЯ КЛИЕНТОВ И ПРОДЮСЕРА ===
	catalogClient := catalogclient.NewCatalogClient(cfg.Catalog.URL)

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.TrendingTopic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.TrendingTopic).
		Msg("Initialized Kafka producer")

	// === ИНИЦИАЛИЗАЦИЯ СЕРВИСОВ ===
	aggregationSvc := service.NewAggregationService(
		gameStatsRepo,
		dailyStatsRepo,
		failedRepo,
		5,
		100*time.Millisecond,
	)

	trendingSvc := service.NewTrendingService(
		gameStatsRepo,
		dailyStatsRepo,
		trendingRepo,
		catalogClient,
		kafkaProducer,
		service.TrendingWeights{
			Recency: cfg.Trending.RecencyWeight,
			Quality: cfg.Trending.QualityWeight,
			Volume:  cfg.Trending.VolumeWeight,
		},
		cfg.Trending.MaxEntries,
		cfg.Trending.Workers,
		time.Duration(cfg.Trending.TimeoutMinutes)*time.Minute,
	)

	queryService := service.NewStatsQueryService(
		gameStatsRepo,
		dailyStatsRepo,
		trendingRepo,
		catalogClient,
		90,
	)

	retentionSvc := service.NewRetentionService(dailyStatsRepo, cfg.Retention.Days)
	logger.Info().Msg("Services initialized")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA CONSUMER ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.ReviewsTopic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		aggregationSvc,
		failedRepo,
	)

	kafkaConsumer.Start(ctx)
	defer kafkaConsumer.Stop()
	logger.Info().
		Str("topic", cfg.Kafka.ReviewsTopic).
		Str("group", cfg.Kafka.GroupID).
		Msg("Kafka consumer started")

	// === ИНИЦИАЛИЗАЦИЯ CRON SCHEDULER ===
	cronScheduler := processor.NewCronScheduler(trendingSvc, retentionSvc)
	if err := cronScheduler.Start(ctx, cfg.Trending.Schedule, cfg.Retention.Schedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	// === ИНИЦИАЛИЗАЦИЯ HTTP СЕРВЕРА ===
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	statsHandler := handler.NewStatsHandler(queryService)
	adminHandler := handler.NewAdminHandler(trendingSvc, aggregationSvc)
	router := handler.SetupRoutes(statsHandler, adminHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Stats Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Stats Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Stats Service stopped gracefully")
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err = mongo.Connect(ctx, clientOptions)
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pingCancel()

			if err = client.Ping(pingCtx, nil); err == nil {
				return client, nil
			}
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}

// connectRedis устанавливает соединение с Redis
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	for i := 0; i < 10; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().Int("attempt", i+1).Msg("Failed to connect to Redis, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts")
}

// connectDB устанавливает соединение с PostgreSQL используя GORM
func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	// Retry logic для устойчивости при запуске в Docker
	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else {
				if pingErr := sqlDB.Ping(); pingErr != nil {
					err = pingErr
				} else {
					// Настраиваем connection pool
					sqlDB.SetMaxOpenConns(10)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
					sqlDB.SetConnMaxIdleTime(1 * time.Minute)
					return db, nil
				}
			}
		}
		logger.Warn().Int("attempt", i+1).Err(err).Msg("Failed to connect to PostgreSQL, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
