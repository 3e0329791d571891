package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/repository/mocks"
	"gamepulse/stats-service/internal/app/stats/service"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAggregationService мок для AggregationServiceInterface
type MockAggregationService struct {
	mock.Mock
}

func (m *MockAggregationService) ProcessEvent(ctx context.Context, event *entity.ReviewEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAggregationService) OnReviewCreated(ctx context.Context, gameID string, rating int, occurredAt time.Time) error {
	args := m.Called(ctx, gameID, rating, occurredAt)
	return args.Error(0)
}

func (m *MockAggregationService) OnReviewUpdated(ctx context.Context, gameID string, oldRating, newRating int, occurredAt time.Time) error {
	args := m.Called(ctx, gameID, oldRating, newRating, occurredAt)
	return args.Error(0)
}

func (m *MockAggregationService) OnReviewDeleted(ctx context.Context, gameID string, rating int, occurredAt time.Time) error {
	args := m.Called(ctx, gameID, rating, occurredAt)
	return args.Error(0)
}

func (m *MockAggregationService) ReprocessFailedEvents(ctx context.Context, limit int) (*entity.ReprocessResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReprocessResult), args.Error(1)
}

func newTestConsumer(aggregationSvc *MockAggregationService, failedRepo *mocks.MockFailedEventRepository) *KafkaConsumer {
	return NewKafkaConsumer(
		[]string{"localhost:9092"},
		"review_events",
		"test-group",
		1,
		10e6,
		aggregationSvc,
		failedRepo,
	)
}

// ===================== NewKafkaConsumer Tests =====================

func TestNewKafkaConsumer(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)

	// Act
	consumer := newTestConsumer(aggregationSvc, failedRepo)

	// Assert
	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.NotNil(t, consumer.aggregationSvc)
	assert.NotNil(t, consumer.stopChan)
	assert.NotNil(t, consumer.doneChan)

	// Cleanup
	consumer.reader.Close()
}

// ===================== processMessage Tests =====================

func TestKafkaConsumer_ProcessMessage_Success(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)
	defer consumer.reader.Close()

	ctx := context.Background()
	event := entity.ReviewEvent{
		EventType: entity.EventReviewCreated,
		ReviewID:  "review-1",
		GameID:    "game-1",
		UserID:    "user-1",
		Rating:    5,
		Timestamp: time.Now().UTC(),
	}
	eventJSON, _ := json.Marshal(event)

	message := kafka.Message{
		Topic:     "review_events",
		Partition: 0,
		Offset:    1,
		Key:       []byte("game-1"),
		Value:     eventJSON,
	}

	aggregationSvc.On("ProcessEvent", ctx, mock.MatchedBy(func(e *entity.ReviewEvent) bool {
		return e.GameID == "game-1" && e.EventType == entity.EventReviewCreated
	})).Return(nil)

	// Act
	commit, err := consumer.processMessage(ctx, message)

	// Assert - событие применено, offset можно двигать
	assert.NoError(t, err)
	assert.True(t, commit)
	aggregationSvc.AssertExpectations(t)
	failedRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestKafkaConsumer_ProcessMessage_InvalidJSONParked(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)
	defer consumer.reader.Close()

	ctx := context.Background()
	message := kafka.Message{
		Value: []byte("invalid json {{{"),
	}

	failedRepo.On("Save", ctx, mock.MatchedBy(func(e *entity.FailedReviewEvent) bool {
		return e.Payload == "invalid json {{{"
	})).Return(nil)

	// Act
	commit, err := consumer.processMessage(ctx, message)

	// Assert - нечитаемое сообщение припарковано, offset двигаем
	assert.Error(t, err)
	assert.True(t, commit)
	assert.Contains(t, err.Error(), "failed to unmarshal")
	aggregationSvc.AssertNotCalled(t, "ProcessEvent", mock.Anything, mock.Anything)
	failedRepo.AssertExpectations(t)
}

func TestKafkaConsumer_ProcessMessage_TransientErrorNotCommitted(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)
	defer consumer.reader.Close()

	ctx := context.Background()
	event := entity.ReviewEvent{
		EventType: entity.EventReviewCreated,
		GameID:    "game-1",
		Rating:    4,
		Timestamp: time.Now().UTC(),
	}
	eventJSON, _ := json.Marshal(event)
	message := kafka.Message{Value: eventJSON}

	aggregationSvc.On("ProcessEvent", ctx, mock.Anything).Return(errors.New("mongo: connection reset"))

	// Act
	commit, err := consumer.processMessage(ctx, message)

	// Assert - временная ошибка: offset не двигаем, сообщение вернется
	assert.Error(t, err)
	assert.False(t, commit)
	failedRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestKafkaConsumer_ProcessMessage_InvalidRatingParked(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)
	defer consumer.reader.Close()

	ctx := context.Background()
	event := entity.ReviewEvent{
		EventType: entity.EventReviewCreated,
		GameID:    "game-1",
		Rating:    7,
		Timestamp: time.Now().UTC(),
	}
	eventJSON, _ := json.Marshal(event)
	message := kafka.Message{Value: eventJSON}

	aggregationSvc.On("ProcessEvent", ctx, mock.Anything).Return(service.ErrInvalidRating)
	failedRepo.On("Save", ctx, mock.MatchedBy(func(e *entity.FailedReviewEvent) bool {
		return e.GameID == "game-1" && e.EventType == entity.EventReviewCreated
	})).Return(nil)

	// Act
	commit, err := consumer.processMessage(ctx, message)

	// Assert - постоянная ошибка: событие в dead-letter, offset двигаем
	assert.Error(t, err)
	assert.True(t, commit)
	failedRepo.AssertExpectations(t)
}

func TestKafkaConsumer_ProcessMessage_ExhaustedConflictsParked(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)
	defer consumer.reader.Close()

	ctx := context.Background()
	event := entity.ReviewEvent{
		EventType: entity.EventReviewUpdated,
		GameID:    "game-hot",
		OldRating: 3,
		NewRating: 5,
		Timestamp: time.Now().UTC(),
	}
	eventJSON, _ := json.Marshal(event)
	message := kafka.Message{Value: eventJSON}

	aggregationSvc.On("ProcessEvent", ctx, mock.Anything).
		Return(fmt.Errorf("game game-hot: %w", service.ErrConflictNotResolved))
	failedRepo.On("Save", ctx, mock.Anything).Return(nil)

	// Act
	commit, err := consumer.processMessage(ctx, message)

	// Assert
	assert.Error(t, err)
	assert.True(t, commit)
	failedRepo.AssertExpectations(t)
}

func TestKafkaConsumer_ProcessMessage_ParkFailureNotCommitted(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)
	defer consumer.reader.Close()

	ctx := context.Background()
	event := entity.ReviewEvent{
		EventType: entity.EventReviewCreated,
		GameID:    "game-1",
		Rating:    9,
		Timestamp: time.Now().UTC(),
	}
	eventJSON, _ := json.Marshal(event)
	message := kafka.Message{Value: eventJSON}

	aggregationSvc.On("ProcessEvent", ctx, mock.Anything).Return(service.ErrInvalidRating)
	failedRepo.On("Save", ctx, mock.Anything).Return(errors.New("postgres down"))

	// Act
	commit, err := consumer.processMessage(ctx, message)

	// Assert - не смогли припарковать: offset не двигаем, событие не теряется
	assert.Error(t, err)
	assert.False(t, commit)
}

// ===================== Start/Stop Tests =====================

func TestKafkaConsumer_StartStop(t *testing.T) {
	// Тест на graceful shutdown без реального Kafka
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)

	consumer := &KafkaConsumer{
		aggregationSvc: aggregationSvc,
		failedRepo:     failedRepo,
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}

	// Симулируем consume loop который сразу выходит
	go func() {
		<-consumer.stopChan
		close(consumer.doneChan)
	}()

	// Act
	close(consumer.stopChan)
	<-consumer.doneChan

	// Assert - consumer остановился без паники
	assert.NotNil(t, consumer)
}

// ===================== GetStats Tests =====================

func TestKafkaConsumer_GetStats(t *testing.T) {
	// Arrange
	aggregationSvc := new(MockAggregationService)
	failedRepo := new(mocks.MockFailedEventRepository)
	consumer := newTestConsumer(aggregationSvc, failedRepo)

	// Act
	stats := consumer.GetStats()

	// Assert
	assert.Equal(t, "review_events", stats.Topic)

	// Cleanup
	consumer.reader.Close()
}
