package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamepulse/pkg/logger"
	"gamepulse/pkg/metrics"
	"gamepulse/stats-service/internal/app/stats/entity"
	"gamepulse/stats-service/internal/app/stats/repository"
	"gamepulse/stats-service/internal/app/stats/service"

	"github.com/segmentio/kafka-go"
)

const serviceName = "stats-service"

// KafkaConsumer обрабатывает события из топика review_events
// Offset коммитится после успешного применения события. События,
// которые не могут быть применены никогда (невалидная оценка) или
// исчерпали повторы записи, паркуются в dead-letter таблицу и коммитятся -
// они никогда не теряются молча. Временные ошибки хранилища offset
// не двигают: сообщение будет доставлено повторно
type KafkaConsumer struct {
	reader         *kafka.Reader
	aggregationSvc service.AggregationServiceInterface
	failedRepo     repository.FailedEventRepository
	groupID        string
	stopChan       chan struct{}
	doneChan       chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	aggregationSvc service.AggregationServiceInterface,
	failedRepo repository.FailedEventRepository,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:         reader,
		aggregationSvc: aggregationSvc,
		failedRepo:     failedRepo,
		groupID:        groupID,
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Msg("Starting Kafka consumer...")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}

				logger.Error().Err(err).Msg("Error fetching message")
				metrics.RecordKafkaError(serviceName, c.reader.Config().Topic, "consume")
				time.Sleep(time.Second)
				continue
			}

			commit, err := c.processMessage(ctx, message)
			if err != nil {
				logger.Error().
					Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Error processing message")
			}

			if commit {
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					logger.Error().Err(err).Msg("Error committing message")
				}
			}
		}
	}
}

// processMessage применяет одно событие отзыва
// Возвращает commit=true, когда offset можно двигать:
// событие применено либо припарковано для повторной обработки
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) (bool, error) {
	start := time.Now()
	topic := c.reader.Config().Topic

	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// Нечитаемое сообщение ретраями не лечится - в dead-letter
		parked := c.parkEvent(ctx, &entity.ReviewEvent{}, message.Value, fmt.Sprintf("unmarshal: %v", err), "validation")
		metrics.ReviewEventsProcessed.WithLabelValues("unknown", "invalid").Inc()
		return parked, fmt.Errorf("failed to unmarshal review event: %w", err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("game_id", event.GameID).
		Int64("offset", message.Offset).
		Msg("Received review event")

	err := c.aggregationSvc.ProcessEvent(ctx, &event)
	metrics.RecordKafkaMessageConsumed(serviceName, topic, c.groupID, time.Since(start))

	if err == nil {
		metrics.ReviewEventsProcessed.WithLabelValues(event.EventType, "success").Inc()
		return true, nil
	}

	if service.IsPermanentFailure(err) {
		reason := "validation"
		status := "invalid"
		if errors.Is(err, service.ErrConflictNotResolved) {
			reason = "conflict"
			status = "conflict"
		}

		parked := c.parkEvent(ctx, &event, message.Value, err.Error(), reason)
		metrics.ReviewEventsProcessed.WithLabelValues(event.EventType, status).Inc()
		return parked, err
	}

	// Временная ошибка хранилища: offset не двигаем, сообщение вернется
	metrics.ReviewEventsProcessed.WithLabelValues(event.EventType, "failed").Inc()
	return false, err
}

// parkEvent сохраняет событие в dead-letter таблицу
// Возвращает false, если сохранить не удалось: тогда offset не коммитится
// и сообщение придет повторно - событие не теряется ни на одном пути
func (c *KafkaConsumer) parkEvent(ctx context.Context, event *entity.ReviewEvent, payload []byte, cause, reason string) bool {
	failed := &entity.FailedReviewEvent{
		EventType: event.EventType,
		GameID:    event.GameID,
		Payload:   string(payload),
		Reason:    cause,
		FailedAt:  time.Now().UTC(),
	}

	if err := c.failedRepo.Save(ctx, failed); err != nil {
		logger.Error().
			Err(err).
			Str("event_type", event.EventType).
			Str("game_id", event.GameID).
			Msg("Failed to park event, message will be redelivered")
		return false
	}

	metrics.FailedEventsParked.WithLabelValues(reason).Inc()
	logger.Warn().
		Str("event_type", event.EventType).
		Str("game_id", event.GameID).
		Str("reason", cause).
		Msg("Review event parked for reprocessing")

	return true
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
