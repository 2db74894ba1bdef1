package models

import (
	"sort"
	"time"
)

type Subscription struct {
	ChatID      int64
	Route       Route
	Weekday     time.Weekday
	NotifySeats bool
}

// RouteSubscription - подписка пользователя на маршрут, сгруппированная по дням.
type RouteSubscription struct {
	Route       Route
	Weekdays    []time.Weekday
	NotifySeats bool
}

type RouteStatus struct {
	Route       Route
	Subscribers int
}

// GroupSubscriptions сохраняет порядок первого появления маршрута.
func GroupSubscriptions(subs []*Subscription) []*RouteSubscription {
	grouped := make([]*RouteSubscription, 0)
	index := make(map[Route]*RouteSubscription)

	for _, sub := range subs {
		group, ok := index[sub.Route]
		if !ok {
			group = &RouteSubscription{Route: sub.Route, NotifySeats: sub.NotifySeats}
			index[sub.Route] = group
			grouped = append(grouped, group)
		}

		group.Weekdays = append(group.Weekdays, sub.Weekday)
	}

	return grouped
}

// SortSubscriptions упорядочивает по чату, маршруту и дню недели.
func SortSubscriptions(subs []*Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := subs[i], subs[j]
		if a.ChatID != b.ChatID {
			return a.ChatID < b.ChatID
		}

		if a.Route != b.Route {
			return a.Route < b.Route
		}

		return a.Weekday < b.Weekday
	})
}

func SortRoutes(routes []Route) {
	sort.Slice(routes, func(i, j int) bool {
		return routes[i] < routes[j]
	})
}
