package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gamepulse/stats-service/internal/app/stats/entity"
)

// ErrGameNotFound - игры нет в каталоге
// Для пересчёта трендов это не ошибка: запись получает пустые title/cover
var ErrGameNotFound = errors.New("game not found in catalog")

// CatalogClient клиент для взаимодействия с Catalog Service
// Используется для денормализации карточек игр в снапшотах трендов
// и получения списка игр разработчика для сводки
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string // JWT токен для аутентификации в Catalog Service
}

// NewCatalogClient создает новый клиент для Catalog Service
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetAuthToken устанавливает JWT токен для аутентификации
func (c *CatalogClient) SetAuthToken(token string) {
	c.authToken = token
}

// GetGame получает карточку игры из Catalog Service
func (c *CatalogClient) GetGame(ctx context.Context, gameID string) (*entity.GameInfo, error) {
	url := fmt.Sprintf("%s/games/%s", c.baseURL, gameID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrGameNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var game entity.GameInfo
	if err := json.NewDecoder(resp.Body).Decode(&game); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &game, nil
}

// GetGamesByDeveloper получает все игры разработчика
// Используется сводкой по разработчику (дашборд студии)
func (c *CatalogClient) GetGamesByDeveloper(ctx context.Context, developerID string) ([]entity.GameInfo, error) {
	url := fmt.Sprintf("%s/developers/%s/games", c.baseURL, developerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Неизвестный разработчик - пустой список, не ошибка
		return []entity.GameInfo{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var games []entity.GameInfo
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return games, nil
}
