package models

import (
	"sort"
	"strings"
	"time"
)

// ScheduleEntry - строка расписания в том виде, в котором ее вернул источник.
type ScheduleEntry struct {
	DayLabel       string
	SeatsAvailable int
}

type DayAvailability struct {
	Seats      int
	ObservedAt time.Time
	Date       time.Time
}

// Snapshot - расписание маршрута по датам, ключ вида "Friday 18.09.".
type Snapshot map[string]DayAvailability

func DateKey(date time.Time) string {
	return date.Weekday().String() + " " + date.Format("02.01.")
}

// WeekdayOfKey извлекает день недели из ключа даты.
func WeekdayOfKey(key string) (time.Weekday, bool) {
	name, _, _ := strings.Cut(key, " ")
	return ParseWeekday(name)
}

func (s Snapshot) Clone() Snapshot {
	clone := make(Snapshot, len(s))
	for key, day := range s {
		clone[key] = day
	}

	return clone
}

// Keys возвращает ключи в календарном порядке.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		di, dj := s[keys[i]].Date, s[keys[j]].Date
		if di.Equal(dj) {
			return keys[i] < keys[j]
		}

		return di.Before(dj)
	})

	return keys
}

type EventKind int

const (
	EventNewDay EventKind = iota
	EventSeatsFreed
)

func (k EventKind) String() string {
	if k == EventSeatsFreed {
		return "seats_freed"
	}

	return "new_day"
}

type ScheduleEvent struct {
	Kind    EventKind
	Route   Route
	DateKey string
	Weekday time.Weekday
	Seats   int
}

// Line - строка уведомления для одного события.
func (e ScheduleEvent) Line() string {
	if e.Kind == EventSeatsFreed {
		return "*" + e.Route.String() + "*\n*" + itoa(e.Seats) + "* free seats on " + e.DateKey
	}

	return "*" + e.Route.String() + "*\nSeats are now available for " + e.DateKey
}
