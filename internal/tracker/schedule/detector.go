package schedule

import (
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

// DetectChanges сравнивает расписание до слияния с только что полученным.
//
// Новый день: дата есть в incoming, но отсутствует в previous.
// Освободились места: в previous на дату было 0 мест, а в incoming не 0.
// В режиме initial previous не учитывается, и любая дата с местами считается освободившейся;
// новых дней в этом режиме нет.
// Оба вида событий вычисляются независимо, одна дата может дать два события.
func DetectChanges(route models.Route, previous, incoming models.Snapshot, initial bool) []models.ScheduleEvent {
	events := make([]models.ScheduleEvent, 0)

	for _, key := range incoming.Keys() {
		day := incoming[key]
		weekday, _ := models.WeekdayOfKey(key)

		if initial {
			if day.Seats != 0 {
				events = append(events, models.ScheduleEvent{
					Kind:    models.EventSeatsFreed,
					Route:   route,
					DateKey: key,
					Weekday: weekday,
					Seats:   day.Seats,
				})
			}

			continue
		}

		before, seen := previous[key]
		if !seen {
			events = append(events, models.ScheduleEvent{
				Kind:    models.EventNewDay,
				Route:   route,
				DateKey: key,
				Weekday: weekday,
			})

			continue
		}

		if before.Seats == 0 && day.Seats != 0 {
			events = append(events, models.ScheduleEvent{
				Kind:    models.EventSeatsFreed,
				Route:   route,
				DateKey: key,
				Weekday: weekday,
				Seats:   day.Seats,
			})
		}
	}

	return events
}
