package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamepulse/pkg/metrics"
	"gamepulse/stats-service/internal/app/stats/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type dailyStatsRepository struct {
	collection *mongo.Collection
}

// NewDailyStatsRepository создает репозиторий дневных агрегатов
// Уникальный составной индекс (game_id, date) - ключ документа;
// он же обслуживает выборку окна последних дней
func NewDailyStatsRepository(db *mongo.Database) DailyStatsRepository {
	collection := db.Collection("daily_stats")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "game_id", Value: 1},
			{Key: "date", Value: 1},
		},
		Options: options.Index().SetName("game_date_idx").SetUnique(true),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		fmt.Printf("Warning: failed to create index on (game_id, date): %v\n", err)
	}

	// Индекс по дате для retention-очистки
	dateIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "date", Value: 1},
		},
		Options: options.Index().SetName("date_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, dateIndexModel); err != nil {
		fmt.Printf("Warning: failed to create index on date: %v\n", err)
	}

	return &dailyStatsRepository{collection: collection}
}

// Get получает дневной агрегат игры за дату
func (r *dailyStatsRepository) Get(ctx context.Context, gameID string, date string) (*entity.DailyStats, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "daily_stats")
	defer timer.ObserveDuration()

	filter := bson.M{"game_id": gameID, "date": date}

	var stats entity.DailyStats
	err := r.collection.FindOne(ctx, filter).Decode(&stats)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatsNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	return &stats, nil
}

// Save записывает дневной агрегат условно по версии
// Семантика идентична GameStatsRepository.Save
func (r *dailyStatsRepository) Save(ctx context.Context, stats *entity.DailyStats) error {
	if stats.Version == 0 {
		timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpInsert, "daily_stats")
		defer timer.ObserveDuration()

		doc := *stats
		doc.Version = 1

		if _, err := r.collection.InsertOne(ctx, &doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			metrics.RecordMongoError(serviceName, metrics.MongoOpInsert)
			return fmt.Errorf("failed to insert daily stats: %w", err)
		}

		return nil
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "daily_stats")
	defer timer.ObserveDuration()

	filter := bson.M{
		"game_id": stats.GameID,
		"date":    stats.Date,
		"version": stats.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"review_count":        stats.ReviewCount,
			"rating_sum":          stats.RatingSum,
			"average_rating":      stats.AverageRating,
			"rating_distribution": stats.RatingDistribution,
			"version":             stats.Version + 1,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to update daily stats: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}

	return nil
}

// GetRecent возвращает не более days последних записей игры
// Сортировка в ответе хронологическая: от старых к новым
func (r *dailyStatsRepository) GetRecent(ctx context.Context, gameID string, days int) ([]entity.DailyStats, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "daily_stats")
	defer timer.ObserveDuration()

	filter := bson.M{"game_id": gameID}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(days))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find daily stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []entity.DailyStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode daily stats: %w", err)
	}

	// Читали от новых к старым из-за лимита - разворачиваем
	for i, j := 0, len(stats)-1; i < j; i, j = i+1, j-1 {
		stats[i], stats[j] = stats[j], stats[i]
	}

	return stats, nil
}

// DeleteOlderThan удаляет записи старше cutoff
// Строковое сравнение дат корректно для формата 2006-01-02
func (r *dailyStatsRepository) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpDelete, "daily_stats")
	defer timer.ObserveDuration()

	filter := bson.M{"date": bson.M{"$lt": cutoff}}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpDelete)
		return 0, fmt.Errorf("failed to delete old daily stats: %w", err)
	}

	return result.DeletedCount, nil
}
