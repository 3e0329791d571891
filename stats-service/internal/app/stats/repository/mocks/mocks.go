package mocks

import (
	"context"

	"gamepulse/stats-service/internal/app/stats/entity"

	"github.com/stretchr/testify/mock"
)

// MockGameStatsRepository мок для GameStatsRepository
type MockGameStatsRepository struct {
	mock.Mock
}

func (m *MockGameStatsRepository) Get(ctx context.Context, gameID string) (*entity.GameStats, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameStats), args.Error(1)
}

func (m *MockGameStatsRepository) Save(ctx context.Context, stats *entity.GameStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockGameStatsRepository) ListActive(ctx context.Context) ([]entity.GameStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GameStats), args.Error(1)
}

// MockDailyStatsRepository мок для DailyStatsRepository
type MockDailyStatsRepository struct {
	mock.Mock
}

func (m *MockDailyStatsRepository) Get(ctx context.Context, gameID string, date string) (*entity.DailyStats, error) {
	args := m.Called(ctx, gameID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyStats), args.Error(1)
}

func (m *MockDailyStatsRepository) Save(ctx context.Context, stats *entity.DailyStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockDailyStatsRepository) GetRecent(ctx context.Context, gameID string, days int) ([]entity.DailyStats, error) {
	args := m.Called(ctx, gameID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyStats), args.Error(1)
}

func (m *MockDailyStatsRepository) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockTrendingRepository мок для TrendingRepository
type MockTrendingRepository struct {
	mock.Mock
}

func (m *MockTrendingRepository) SaveSnapshot(ctx context.Context, snapshot *entity.TrendingSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockTrendingRepository) GetSnapshot(ctx context.Context, period entity.TrendingPeriod) (*entity.TrendingSnapshot, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TrendingSnapshot), args.Error(1)
}

// MockFailedEventRepository мок для FailedEventRepository
type MockFailedEventRepository struct {
	mock.Mock
}

func (m *MockFailedEventRepository) Save(ctx context.Context, event *entity.FailedReviewEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockFailedEventRepository) ListPending(ctx context.Context, limit int) ([]entity.FailedReviewEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.FailedReviewEvent), args.Error(1)
}

func (m *MockFailedEventRepository) MarkReprocessed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogClient мок для клиента Catalog Service
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) GetGame(ctx context.Context, gameID string) (*entity.GameInfo, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameInfo), args.Error(1)
}

func (m *MockCatalogClient) GetGamesByDeveloper(ctx context.Context, developerID string) ([]entity.GameInfo, error) {
	args := m.Called(ctx, developerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GameInfo), args.Error(1)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
