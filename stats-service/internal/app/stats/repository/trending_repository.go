package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamepulse/pkg/metrics"
	"gamepulse/stats-service/internal/app/stats/entity"

	"github.com/redis/go-redis/v9"
)

const trendingKeyPrefix = "trending:"

type trendingRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrendingRepository создает репозиторий снапшотов трендов
// Снапшот живет в одном ключе на период и заменяется одним SET,
// поэтому читатели никогда не видят наполовину обновлённый список.
// TTL - страховка: устаревший снапшот исчезает, если пересчёт давно не запускался
func NewTrendingRepository(client *redis.Client, ttl time.Duration) TrendingRepository {
	return &trendingRepository{
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(period entity.TrendingPeriod) string {
	return trendingKeyPrefix + string(period)
}

// SaveSnapshot атомарно заменяет снапшот периода
func (r *trendingRepository) SaveSnapshot(ctx context.Context, snapshot *entity.TrendingSnapshot) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal trending snapshot: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKey(snapshot.Period), data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set trending snapshot: %w", err)
	}

	return nil
}

// GetSnapshot получает снапшот периода
func (r *trendingRepository) GetSnapshot(ctx context.Context, period entity.TrendingPeriod) (*entity.TrendingSnapshot, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, snapshotKey(period)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get trending snapshot: %w", err)
	}

	var snapshot entity.TrendingSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trending snapshot: %w", err)
	}

	return &snapshot, nil
}
