package cache_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/central-university-dev/go-shuttle/internal/bot/cache"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

func TestRedisSubscriptionCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := context.Background()

	redisC, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	defer func() {
		if err := redisC.Terminate(context.Background()); err != nil {
			t.Logf("Ошибка при остановке Redis контейнера: %v", err)
		}
	}()

	host, err := redisC.Host(ctx)
	require.NoError(t, err)

	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := host + ":" + port.Port()

	redisCache, err := cache.NewRedisSubscriptionCache(redisURL, "", 0, 30*time.Second, logger)
	require.NoError(t, err)

	defer redisCache.Close()

	chatID := int64(123456789)

	subs := []*models.Subscription{
		{ChatID: chatID, Route: "Zurich-Work", Weekday: time.Monday, NotifySeats: true},
		{ChatID: chatID, Route: "Zurich-Work", Weekday: time.Friday, NotifySeats: true},
	}

	cached, err := redisCache.GetSubscriptions(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	require.NoError(t, redisCache.SetSubscriptions(ctx, chatID, subs))

	cached, err = redisCache.GetSubscriptions(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, *subs[0], *cached[0])
	assert.Equal(t, *subs[1], *cached[1])

	require.NoError(t, redisCache.SetSubscriptions(ctx, chatID+1, nil))

	cached, err = redisCache.GetSubscriptions(ctx, chatID+1)
	require.NoError(t, err)
	assert.NotNil(t, cached, "пустой список тоже должен кэшироваться")
	assert.Empty(t, cached)

	require.NoError(t, redisCache.DeleteSubscriptions(ctx, chatID))

	cached, err = redisCache.GetSubscriptions(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	shortTTLCache, err := cache.NewRedisSubscriptionCache(redisURL, "", 0, 1*time.Second, logger)
	require.NoError(t, err)

	defer shortTTLCache.Close()

	require.NoError(t, shortTTLCache.SetSubscriptions(ctx, chatID+2, subs))

	time.Sleep(2 * time.Second)

	cached, err = shortTTLCache.GetSubscriptions(ctx, chatID+2)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
