package models_test

import (
	"testing"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteSpec_Routes(t *testing.T) {
	tests := []struct {
		name     string
		spec     models.RouteSpec
		expected []models.Route
	}{
		{
			name:     "bidirectional",
			spec:     models.RouteSpec{Direction: models.Bidirectional, Destination: "Zurich"},
			expected: []models.Route{"Zurich-Work", "Work-Zurich"},
		},
		{
			name:     "to hub",
			spec:     models.RouteSpec{Direction: models.ToHub, Destination: "Zurich"},
			expected: []models.Route{"Zurich-Work"},
		},
		{
			name:     "from hub",
			spec:     models.RouteSpec{Direction: models.FromHub, Destination: "Zurich"},
			expected: []models.Route{"Work-Zurich"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.Routes())
		})
	}
}

func TestRoute_Endpoints(t *testing.T) {
	origin, destination := models.Route("Work-Zurich").Endpoints()

	assert.Equal(t, "Work", origin)
	assert.Equal(t, "Zurich", destination)
	assert.Equal(t, "Zurich", models.Route("Work-Zurich").Place())
	assert.Equal(t, "Baden", models.Route("Baden-Work").Place())
}

func TestUser_AuthState(t *testing.T) {
	tests := []struct {
		name     string
		user     models.User
		expected models.AuthState
	}{
		{name: "new user", user: *models.NewPendingUser(1, "a"), expected: models.AuthPending},
		{name: "blocked", user: models.User{Blocked: true}, expected: models.AuthBlocked},
		{name: "member", user: models.User{}, expected: models.AuthMember},
		{name: "admin", user: models.User{Admin: true}, expected: models.AuthAdmin},
		{name: "blocked admin", user: models.User{Admin: true, Blocked: true}, expected: models.AuthBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.AuthState())
		})
	}
}

func TestParseCommand(t *testing.T) {
	command := models.ParseCommand(42, "/Add Zurich days=Monday,Friday", "Anna")

	assert.Equal(t, models.CommandAdd, command.Type)
	assert.Equal(t, "add", command.Name)
	assert.Equal(t, []string{"zurich", "days=monday,friday"}, command.Args)
	assert.Equal(t, int64(42), command.ChatID)
	assert.Equal(t, "Anna", command.DisplayName)

	unknown := models.ParseCommand(42, "hello there", "Anna")
	assert.Equal(t, models.CommandUnknown, unknown.Type)
	assert.Equal(t, "hello", unknown.Name)

	empty := models.ParseCommand(42, "   ", "Anna")
	assert.Equal(t, models.CommandUnknown, empty.Type)
	assert.Empty(t, empty.Name)
}

func TestSnapshot_KeysInCalendarOrder(t *testing.T) {
	monday := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	friday := monday.AddDate(0, 0, 4)
	nextMonday := monday.AddDate(0, 0, 7)

	snapshot := models.Snapshot{
		models.DateKey(nextMonday): {Seats: 1, Date: nextMonday},
		models.DateKey(friday):     {Seats: 2, Date: friday},
		models.DateKey(monday):     {Seats: 3, Date: monday},
	}

	assert.Equal(t, []string{"Monday 14.09.", "Friday 18.09.", "Monday 21.09."}, snapshot.Keys())

	day, ok := models.WeekdayOfKey("Friday 18.09.")
	require.True(t, ok)
	assert.Equal(t, time.Friday, day)
}

func TestGroupSubscriptions(t *testing.T) {
	grouped := models.GroupSubscriptions([]*models.Subscription{
		{ChatID: 1, Route: "Zurich-Work", Weekday: time.Monday, NotifySeats: true},
		{ChatID: 1, Route: "Work-Zurich", Weekday: time.Tuesday, NotifySeats: false},
		{ChatID: 1, Route: "Zurich-Work", Weekday: time.Friday, NotifySeats: true},
	})

	require.Len(t, grouped, 2)
	assert.Equal(t, models.Route("Zurich-Work"), grouped[0].Route)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, grouped[0].Weekdays)
	assert.True(t, grouped[0].NotifySeats)
	assert.Equal(t, models.Route("Work-Zurich"), grouped[1].Route)
	assert.False(t, grouped[1].NotifySeats)
}

func TestScheduleEvent_Line(t *testing.T) {
	newDay := models.ScheduleEvent{Kind: models.EventNewDay, Route: "Zurich-Work", DateKey: "Friday 18.09."}
	freed := models.ScheduleEvent{Kind: models.EventSeatsFreed, Route: "Zurich-Work", DateKey: "Friday 18.09.", Seats: 3}

	assert.Equal(t, "*Zurich-Work*\nSeats are now available for Friday 18.09.", newDay.Line())
	assert.Equal(t, "*Zurich-Work*\n*3* free seats on Friday 18.09.", freed.Line())
}

func TestUniqueWeekdays(t *testing.T) {
	days := models.UniqueWeekdays([]time.Weekday{time.Friday, time.Monday, time.Friday, time.Monday})

	assert.Equal(t, []time.Weekday{time.Friday, time.Monday}, days)
	assert.Empty(t, models.UniqueWeekdays(nil))
}
