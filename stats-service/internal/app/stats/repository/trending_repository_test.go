package repository

import (
	"context"
	"testing"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// TrendingRepositoryTestSuite тестовый suite для Redis repository
type TrendingRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	repo      TrendingRepository
}

func TestTrendingRepositorySuite(t *testing.T) {
	suite.Run(t, new(TrendingRepositoryTestSuite))
}

func (s *TrendingRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.repo = NewTrendingRepository(s.client, 2*time.Hour)
}

func (s *TrendingRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *TrendingRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== SaveSnapshot Tests =====================

func (s *TrendingRepositoryTestSuite) TestSaveSnapshot_Success() {
	ctx := context.Background()

	snapshot := &entity.TrendingSnapshot{
		Period: entity.PeriodDaily,
		Entries: []entity.TrendingEntry{
			{GameID: "game-1", Title: "Game One", AverageRating: 4.5, RecentReviewCount: 12, Score: 73.2, Rank: 1},
			{GameID: "game-2", Title: "Game Two", AverageRating: 4.0, RecentReviewCount: 5, Score: 55.0, Rank: 2},
		},
		ComputedAt: time.Now().UTC().Truncate(time.Second),
	}

	// Act
	err := s.repo.SaveSnapshot(ctx, snapshot)

	// Assert
	s.NoError(err)

	result, err := s.repo.GetSnapshot(ctx, entity.PeriodDaily)
	s.NoError(err)
	s.Equal(entity.PeriodDaily, result.Period)
	s.Len(result.Entries, 2)
	s.Equal("game-1", result.Entries[0].GameID)
	s.Equal(1, result.Entries[0].Rank)
}

func (s *TrendingRepositoryTestSuite) TestSaveSnapshot_ReplacesPrevious() {
	ctx := context.Background()

	first := &entity.TrendingSnapshot{
		Period: entity.PeriodWeekly,
		Entries: []entity.TrendingEntry{
			{GameID: "game-old", Rank: 1},
		},
		ComputedAt: time.Now().UTC(),
	}
	s.NoError(s.repo.SaveSnapshot(ctx, first))

	second := &entity.TrendingSnapshot{
		Period: entity.PeriodWeekly,
		Entries: []entity.TrendingEntry{
			{GameID: "game-new", Rank: 1},
			{GameID: "game-other", Rank: 2},
		},
		ComputedAt: time.Now().UTC(),
	}

	// Act - снапшот заменяется целиком
	s.NoError(s.repo.SaveSnapshot(ctx, second))

	// Assert
	result, err := s.repo.GetSnapshot(ctx, entity.PeriodWeekly)
	s.NoError(err)
	s.Len(result.Entries, 2)
	s.Equal("game-new", result.Entries[0].GameID)
}

func (s *TrendingRepositoryTestSuite) TestSaveSnapshot_SetsTTL() {
	ctx := context.Background()

	snapshot := &entity.TrendingSnapshot{
		Period:     entity.PeriodMonthly,
		Entries:    []entity.TrendingEntry{},
		ComputedAt: time.Now().UTC(),
	}

	s.NoError(s.repo.SaveSnapshot(ctx, snapshot))

	// Снапшот исчезает после TTL - страховка от устаревших данных
	s.miniRedis.FastForward(3 * time.Hour)

	_, err := s.repo.GetSnapshot(ctx, entity.PeriodMonthly)
	s.ErrorIs(err, ErrSnapshotNotFound)
}

func (s *TrendingRepositoryTestSuite) TestSaveSnapshot_PeriodsIsolated() {
	ctx := context.Background()

	daily := &entity.TrendingSnapshot{
		Period:     entity.PeriodDaily,
		Entries:    []entity.TrendingEntry{{GameID: "game-1", Rank: 1}},
		ComputedAt: time.Now().UTC(),
	}
	weekly := &entity.TrendingSnapshot{
		Period:     entity.PeriodWeekly,
		Entries:    []entity.TrendingEntry{{GameID: "game-2", Rank: 1}},
		ComputedAt: time.Now().UTC(),
	}

	s.NoError(s.repo.SaveSnapshot(ctx, daily))
	s.NoError(s.repo.SaveSnapshot(ctx, weekly))

	dailyResult, err := s.repo.GetSnapshot(ctx, entity.PeriodDaily)
	s.NoError(err)
	s.Equal("game-1", dailyResult.Entries[0].GameID)

	weeklyResult, err := s.repo.GetSnapshot(ctx, entity.PeriodWeekly)
	s.NoError(err)
	s.Equal("game-2", weeklyResult.Entries[0].GameID)
}

// ===================== GetSnapshot Tests =====================

func (s *TrendingRepositoryTestSuite) TestGetSnapshot_NotFound() {
	ctx := context.Background()

	result, err := s.repo.GetSnapshot(ctx, entity.PeriodDaily)

	s.Nil(result)
	s.ErrorIs(err, ErrSnapshotNotFound)
}
