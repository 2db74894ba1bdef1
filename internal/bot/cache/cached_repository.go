package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository"
)

// CachedSubscriptionRepository кэширует подписки пользователя для команды info.
// Любое изменение подписок пользователя сбрасывает его запись в кэше.
type CachedSubscriptionRepository struct {
	repository.SubscriptionRepository
	cache  SubscriptionCache
	logger *slog.Logger
}

func NewCachedSubscriptionRepository(
	repo repository.SubscriptionRepository,
	cache SubscriptionCache,
	logger *slog.Logger,
) *CachedSubscriptionRepository {
	return &CachedSubscriptionRepository{
		SubscriptionRepository: repo,
		cache:                  cache,
		logger:                 logger,
	}
}

func (r *CachedSubscriptionRepository) FindByChatID(ctx context.Context, chatID int64) ([]*models.Subscription, error) {
	cached, err := r.cache.GetSubscriptions(ctx, chatID)
	if err == nil && cached != nil {
		return cached, nil
	}

	subs, err := r.SubscriptionRepository.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetSubscriptions(ctx, chatID, subs); err != nil {
		r.logger.Warn("Не удалось сохранить подписки в кэш",
			"error", err,
			"chatID", chatID,
		)
	}

	return subs, nil
}

func (r *CachedSubscriptionRepository) Replace(
	ctx context.Context,
	chatID int64,
	route models.Route,
	weekdays []time.Weekday,
	notifySeats bool,
) (bool, error) {
	existed, err := r.SubscriptionRepository.Replace(ctx, chatID, route, weekdays, notifySeats)
	r.invalidate(ctx, chatID)

	return existed, err
}

func (r *CachedSubscriptionRepository) Delete(ctx context.Context, chatID int64, routes []models.Route) ([]models.Route, error) {
	removed, err := r.SubscriptionRepository.Delete(ctx, chatID, routes)
	r.invalidate(ctx, chatID)

	return removed, err
}

func (r *CachedSubscriptionRepository) DeleteAll(ctx context.Context, chatID int64) ([]models.Route, error) {
	removed, err := r.SubscriptionRepository.DeleteAll(ctx, chatID)
	r.invalidate(ctx, chatID)

	return removed, err
}

func (r *CachedSubscriptionRepository) invalidate(ctx context.Context, chatID int64) {
	if err := r.cache.DeleteSubscriptions(ctx, chatID); err != nil {
		r.logger.Error("Ошибка при инвалидации кэша",
			"error", err,
			"chatID", chatID,
		)
	}
}
