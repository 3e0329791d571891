package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const serviceName = "stats-service"

type gameStatsRepository struct {
	collection *mongo.Collection
}

// NewGameStatsRepository создает репозиторий агрегатов игр
// Ключ документа - game_id (_id), отдельный индекс не нужен;
// индекс по total_reviews ускоряет выборку активных игр для пересчёта трендов
func NewGameStatsRepository(db *mongo.Database) GameStatsRepository {
	collection := db.Collection("game_stats")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "total_reviews", Value: 1},
		},
		Options: options.Index().SetName("total_reviews_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс может уже существовать - не прерываем работу
		fmt.Printf("Warning: failed to create index on total_reviews: %v\n", err)
	}

	return &gameStatsRepository{collection: collection}
}

// Get получает агрегат игры по ID
func (r *gameStatsRepository) Get(ctx context.Context, gameID string) (*entity.GameStats, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "game_stats")
	defer timer.ObserveDuration()

	var stats entity.GameStats
	err := r.collection.FindOne(ctx, bson.M{"_id": gameID}).Decode(&stats)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatsNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get game stats: %w", err)
	}

	return &stats, nil
}

// Save записывает агрегат условно по версии
// Version=0 - документа ещё не было, вставляем с version=1.
// Дубликат ключа при вставке означает, что нас опередил параллельный
// обработчик - это тот же конфликт версий, вызывающий повтор цикла
func (r *gameStatsRepository) Save(ctx context.Context, stats *entity.GameStats) error {
	if stats.Version == 0 {
		timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpInsert, "game_stats")
		defer timer.ObserveDuration()

		doc := *stats
		doc.Version = 1

		if _, err := r.collection.InsertOne(ctx, &doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			metrics.RecordMongoError(serviceName, metrics.MongoOpInsert)
			return fmt.Errorf("failed to insert game stats: %w", err)
		}

		return nil
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "game_stats")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     stats.GameID,
		"version": stats.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"total_reviews":       stats.TotalReviews,
			"rating_distribution": stats.RatingDistribution,
			"average_rating":      stats.AverageRating,
			"last_updated":        stats.LastUpdated,
			"version":             stats.Version + 1,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to update game stats: %w", err)
	}

	if result.MatchedCount == 0 {
		// Версия в базе ушла вперед - проигравший повторяет чтение-запись
		return ErrVersionConflict
	}

	return nil
}

// ListActive возвращает все игры с total_reviews > 0
// Используется пересчётом трендов как полный входной набор
func (r *gameStatsRepository) ListActive(ctx context.Context) ([]entity.GameStats, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "game_stats")
	defer timer.ObserveDuration()

	filter := bson.M{"total_reviews": bson.M{"$gt": 0}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to list active game stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []entity.GameStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode game stats: %w", err)
	}

	return stats, nil
}
