package models

import (
	"strings"
	"time"
)

// Hub - общая точка всех маршрутов, одна из сторон маршрута всегда Work.
const Hub = "Work"

// Route - направленный маршрут вида "<Origin>-<Destination>".
type Route string

func NewRoute(origin, destination string) Route {
	return Route(origin + "-" + destination)
}

func RouteTo(place string) Route {
	return NewRoute(place, Hub)
}

func RouteFrom(place string) Route {
	return NewRoute(Hub, place)
}

func (r Route) String() string {
	return string(r)
}

func (r Route) Endpoints() (origin, destination string) {
	origin, destination, _ = strings.Cut(string(r), "-")
	return origin, destination
}

// Place возвращает сторону маршрута, отличную от Work.
func (r Route) Place() string {
	origin, destination := r.Endpoints()
	if origin == Hub {
		return destination
	}

	return origin
}

type Direction int

const (
	Bidirectional Direction = iota
	ToHub
	FromHub
)

// RouteSpec - разобранный токен маршрута из команды пользователя.
type RouteSpec struct {
	Direction   Direction
	Destination string
}

func (s RouteSpec) Routes() []Route {
	switch s.Direction {
	case ToHub:
		return []Route{RouteTo(s.Destination)}
	case FromHub:
		return []Route{RouteFrom(s.Destination)}
	default:
		return []Route{RouteTo(s.Destination), RouteFrom(s.Destination)}
	}
}

// ServiceDays - дни, в которые ходит шаттл.
var ServiceDays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
}

func IsServiceDay(day time.Weekday) bool {
	return day >= time.Monday && day <= time.Friday
}

// UniqueWeekdays убирает повторы, сохраняя порядок первого вхождения.
func UniqueWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	unique := make([]time.Weekday, 0, len(days))

	for _, day := range days {
		if _, ok := seen[day]; ok {
			continue
		}

		seen[day] = struct{}{}
		unique = append(unique, day)
	}

	return unique
}

// ParseWeekday принимает название дня в любом регистре.
func ParseWeekday(name string) (time.Weekday, bool) {
	normalized := Capitalize(name)

	for day := time.Sunday; day <= time.Saturday; day++ {
		if day.String() == normalized {
			return day, true
		}
	}

	return 0, false
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)

	return strings.ToUpper(lower[:1]) + lower[1:]
}
