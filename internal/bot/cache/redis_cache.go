package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type SubscriptionCache interface {
	GetSubscriptions(ctx context.Context, chatID int64) ([]*models.Subscription, error)
	SetSubscriptions(ctx context.Context, chatID int64, subs []*models.Subscription) error
	DeleteSubscriptions(ctx context.Context, chatID int64) error
}

type RedisSubscriptionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisSubscriptionCache(redisURL, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisSubscriptionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis успешно установлено")

	return &RedisSubscriptionCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func subscriptionsKey(chatID int64) string {
	return fmt.Sprintf("subscriptions:%d", chatID)
}

// GetSubscriptions возвращает nil без ошибки, если записи в кэше нет.
func (c *RedisSubscriptionCache) GetSubscriptions(ctx context.Context, chatID int64) ([]*models.Subscription, error) {
	data, err := c.client.Get(ctx, subscriptionsKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("Кэш не найден",
				"chatID", chatID,
			)

			return nil, nil
		}

		c.logger.Error("Ошибка при получении данных из Redis",
			"error", err,
			"chatID", chatID,
		)

		return nil, fmt.Errorf("ошибка при получении данных из Redis: %w", err)
	}

	subs := make([]*models.Subscription, 0)
	if err := json.Unmarshal(data, &subs); err != nil {
		c.logger.Error("Ошибка при десериализации данных из Redis",
			"error", err,
			"chatID", chatID,
		)

		return nil, fmt.Errorf("ошибка при десериализации данных из Redis: %w", err)
	}

	c.logger.Debug("Данные успешно получены из кэша",
		"chatID", chatID,
		"count", len(subs),
	)

	return subs, nil
}

func (c *RedisSubscriptionCache) SetSubscriptions(ctx context.Context, chatID int64, subs []*models.Subscription) error {
	if subs == nil {
		subs = make([]*models.Subscription, 0)
	}

	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации данных для Redis: %w", err)
	}

	if err := c.client.Set(ctx, subscriptionsKey(chatID), data, c.ttl).Err(); err != nil {
		c.logger.Error("Ошибка при сохранении данных в Redis",
			"error", err,
			"chatID", chatID,
		)

		return fmt.Errorf("ошибка при сохранении данных в Redis: %w", err)
	}

	c.logger.Debug("Данные успешно сохранены в кэш",
		"chatID", chatID,
		"count", len(subs),
		"ttl", c.ttl,
	)

	return nil
}

func (c *RedisSubscriptionCache) DeleteSubscriptions(ctx context.Context, chatID int64) error {
	if err := c.client.Del(ctx, subscriptionsKey(chatID)).Err(); err != nil {
		c.logger.Error("Ошибка при удалении данных из Redis",
			"error", err,
			"chatID", chatID,
		)

		return fmt.Errorf("ошибка при удалении данных из Redis: %w", err)
	}

	return nil
}

func (c *RedisSubscriptionCache) Close() error {
	return c.client.Close()
}
