package memory

import (
	"context"
	"sync"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type SubscriptionRepository struct {
	subs []models.Subscription
	mu   sync.RWMutex
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{}
}

func (r *SubscriptionRepository) Replace(
	_ context.Context,
	chatID int64,
	route models.Route,
	weekdays []time.Weekday,
	notifySeats bool,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subs[:0]
	existed := false

	for _, sub := range r.subs {
		if sub.ChatID == chatID && sub.Route == route {
			existed = true
			continue
		}

		kept = append(kept, sub)
	}

	r.subs = kept

	for _, day := range models.UniqueWeekdays(weekdays) {
		r.subs = append(r.subs, models.Subscription{
			ChatID:      chatID,
			Route:       route,
			Weekday:     day,
			NotifySeats: notifySeats,
		})
	}

	return existed, nil
}

func (r *SubscriptionRepository) Delete(_ context.Context, chatID int64, routes []models.Route) ([]models.Route, error) {
	targets := make(map[models.Route]struct{}, len(routes))
	for _, route := range routes {
		targets[route] = struct{}{}
	}

	return r.deleteWhere(func(sub models.Subscription) bool {
		_, ok := targets[sub.Route]
		return sub.ChatID == chatID && ok
	}), nil
}

func (r *SubscriptionRepository) DeleteAll(_ context.Context, chatID int64) ([]models.Route, error) {
	return r.deleteWhere(func(sub models.Subscription) bool {
		return sub.ChatID == chatID
	}), nil
}

func (r *SubscriptionRepository) deleteWhere(match func(models.Subscription) bool) []models.Route {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subs[:0]
	removed := make(map[models.Route]struct{})

	for _, sub := range r.subs {
		if match(sub) {
			removed[sub.Route] = struct{}{}
			continue
		}

		kept = append(kept, sub)
	}

	r.subs = kept

	return routeSet(removed)
}

func (r *SubscriptionRepository) FindByChatID(_ context.Context, chatID int64) ([]*models.Subscription, error) {
	return r.filter(func(sub models.Subscription) bool { return sub.ChatID == chatID }), nil
}

func (r *SubscriptionRepository) FindByRoute(_ context.Context, route models.Route) ([]*models.Subscription, error) {
	return r.filter(func(sub models.Subscription) bool { return sub.Route == route }), nil
}

func (r *SubscriptionRepository) ActiveRoutes(_ context.Context) ([]models.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make(map[models.Route]struct{})
	for _, sub := range r.subs {
		active[sub.Route] = struct{}{}
	}

	return routeSet(active), nil
}

func (r *SubscriptionRepository) RouteStatus(_ context.Context) ([]models.RouteStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers := make(map[models.Route]map[int64]struct{})

	for _, sub := range r.subs {
		if subscribers[sub.Route] == nil {
			subscribers[sub.Route] = make(map[int64]struct{})
		}

		subscribers[sub.Route][sub.ChatID] = struct{}{}
	}

	routes := make([]models.Route, 0, len(subscribers))
	for route := range subscribers {
		routes = append(routes, route)
	}

	models.SortRoutes(routes)

	statuses := make([]models.RouteStatus, 0, len(routes))
	for _, route := range routes {
		statuses = append(statuses, models.RouteStatus{Route: route, Subscribers: len(subscribers[route])})
	}

	return statuses, nil
}

func (r *SubscriptionRepository) filter(match func(models.Subscription) bool) []*models.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Subscription, 0)

	for _, sub := range r.subs {
		if match(sub) {
			s := sub
			result = append(result, &s)
		}
	}

	models.SortSubscriptions(result)

	return result
}

func routeSet(set map[models.Route]struct{}) []models.Route {
	routes := make([]models.Route, 0, len(set))
	for route := range set {
		routes = append(routes, route)
	}

	models.SortRoutes(routes)

	return routes
}
