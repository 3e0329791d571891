package infrastructure

import (
	"context"

	"gamepulse/stats-service/internal/app/stats/entity"
)

// MessagePublisher публикует события в Kafka
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// CatalogServiceClient - клиент внешнего Catalog Service
// Поставляет карточки игр для денормализации трендов и списки игр разработчика
type CatalogServiceClient interface {
	GetGame(ctx context.Context, gameID string) (*entity.GameInfo, error)
	GetGamesByDeveloper(ctx context.Context, developerID string) ([]entity.GameInfo, error)
}
