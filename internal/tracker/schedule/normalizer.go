package schedule

import (
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

const (
	labelToday    = "Today"
	labelTomorrow = "Tomorrow"
)

// Normalize переводит метки "Today", "Tomorrow" и дни недели в календарные даты
// относительно now и суммирует места по каждой дате.
// Строки источника идут по возрастанию времени, поэтому курсор даты только движется вперед.
func Normalize(entries []models.ScheduleEntry, now time.Time) (models.Snapshot, error) {
	snapshot := make(models.Snapshot)

	cursor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	previousLabel := ""

	for i, entry := range entries {
		if i == 0 || entry.DayLabel != previousLabel {
			next, err := advance(cursor, entry.DayLabel)
			if err != nil {
				return nil, err
			}

			cursor = next
			previousLabel = entry.DayLabel
		}

		key := models.DateKey(cursor)

		day := snapshot[key]
		day.Seats += entry.SeatsAvailable
		day.ObservedAt = now
		day.Date = cursor
		snapshot[key] = day
	}

	return snapshot, nil
}

func advance(cursor time.Time, label string) (time.Time, error) {
	switch label {
	case labelToday:
		return cursor, nil
	case labelTomorrow:
		return cursor.AddDate(0, 0, 1), nil
	}

	target, ok := models.ParseWeekday(label)
	if !ok || models.Capitalize(label) != label {
		return time.Time{}, &errors.ErrUnknownDayLabel{Label: label}
	}

	if !models.IsServiceDay(target) {
		return time.Time{}, &errors.ErrScheduleFormat{Message: "выходной день в расписании: " + label}
	}

	diff := int(target - cursor.Weekday())
	if diff <= 0 {
		diff += 7
	}

	return cursor.AddDate(0, 0, diff), nil
}
