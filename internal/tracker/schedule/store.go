package schedule

import (
	"sync"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type routeSlot struct {
	mu   sync.Mutex
	days models.Snapshot
}

// Store хранит последнее известное расписание каждого маршрута.
// Изменения одного маршрута выполняются под его собственной блокировкой.
type Store struct {
	mu     sync.RWMutex
	routes map[models.Route]*routeSlot
}

func NewStore() *Store {
	return &Store{
		routes: make(map[models.Route]*routeSlot),
	}
}

// Seed заменяет расписание маршрута целиком.
func (s *Store) Seed(route models.Route, snapshot models.Snapshot) {
	slot := s.slot(route)

	slot.mu.Lock()
	slot.days = snapshot.Clone()
	slot.mu.Unlock()
}

// Merge перезаписывает даты из snapshot, не трогая остальные, и возвращает
// копию расписания до слияния.
func (s *Store) Merge(route models.Route, snapshot models.Snapshot) models.Snapshot {
	slot := s.slot(route)

	slot.mu.Lock()
	defer slot.mu.Unlock()

	previous := slot.days.Clone()

	if slot.days == nil {
		slot.days = make(models.Snapshot, len(snapshot))
	}

	for key, day := range snapshot {
		slot.days[key] = day
	}

	return previous
}

func (s *Store) Snapshot(route models.Route) (models.Snapshot, bool) {
	s.mu.RLock()
	slot, ok := s.routes[route]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	return slot.days.Clone(), true
}

// Evict удаляет даты, наблюдавшиеся раньше now-maxAge, и возвращает число удаленных записей.
func (s *Store) Evict(maxAge time.Duration, now time.Time) int {
	s.mu.RLock()
	slots := make([]*routeSlot, 0, len(s.routes))

	for _, slot := range s.routes {
		slots = append(slots, slot)
	}
	s.mu.RUnlock()

	threshold := now.Add(-maxAge)
	evicted := 0

	for _, slot := range slots {
		slot.mu.Lock()

		for key, day := range slot.days {
			if day.ObservedAt.Before(threshold) {
				delete(slot.days, key)
				evicted++
			}
		}

		slot.mu.Unlock()
	}

	return evicted
}

func (s *Store) Remove(route models.Route) {
	s.mu.Lock()
	delete(s.routes, route)
	s.mu.Unlock()
}

func (s *Store) Routes() []models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()

	routes := make([]models.Route, 0, len(s.routes))
	for route := range s.routes {
		routes = append(routes, route)
	}

	return routes
}

func (s *Store) slot(route models.Route) *routeSlot {
	s.mu.RLock()
	slot, ok := s.routes[route]
	s.mu.RUnlock()

	if ok {
		return slot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slot, ok = s.routes[route]; ok {
		return slot
	}

	slot = &routeSlot{days: make(models.Snapshot)}
	s.routes[route] = slot

	return slot
}
