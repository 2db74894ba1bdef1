package clients_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/clients"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDestinations = clients.Destinations{
	"Work":   {Latitude: 47.36, Longitude: 8.53},
	"Zurich": {Latitude: 47.37, Longitude: 8.54},
}

func testConfig() *config.Config {
	return &config.Config{
		ExternalRequestTimeout:     5 * time.Second,
		RetryCount:                 0,
		RetryBackoff:               100 * time.Millisecond,
		RetryableStatusCodes:       []int{500, 502, 503, 504},
		CBSlidingWindowSize:        100,
		CBMinimumRequiredCalls:     10,
		CBFailureRateThreshold:     90,
		CBPermittedCallsInHalfOpen: 3,
		CBWaitDurationInOpenState:  10 * time.Second,
	}
}

func TestScheduleClient_FetchSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var (
		gotCookie string
		gotBody   []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"hcvSchedules":{"schedules":[
			{"day":"Today","seatsAvailable":2,"formattedETA":"8:10"},
			{"day":"Today","seatsAvailable":"3"},
			{"day":"Tomorrow","seatsAvailable":0}
		],"__typename":"x"}}}`))
	}))
	defer server.Close()

	client := clients.NewScheduleClient(server.URL, "sid=abc;", testDestinations, testConfig(), logger)

	entries, err := client.FetchSchedule(context.Background(), "Zurich", "Work")
	require.NoError(t, err)

	assert.Equal(t, []models.ScheduleEntry{
		{DayLabel: "Today", SeatsAvailable: 2},
		{DayLabel: "Today", SeatsAvailable: 3},
		{DayLabel: "Tomorrow", SeatsAvailable: 0},
	}, entries)
	assert.Equal(t, "sid=abc;", gotCookie)

	var operation string

	require.NoError(t, jx.DecodeBytes(gotBody).Obj(func(d *jx.Decoder, key string) error {
		if key == "operationName" {
			v, err := d.Str()
			operation = v

			return err
		}

		return d.Skip()
	}))
	assert.Equal(t, "HcvSchedules", operation)
}

func TestScheduleClient_Unauthorized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"unauthorized","extensions":{}}]}`))
	}))
	defer server.Close()

	client := clients.NewScheduleClient(server.URL, "", testDestinations, testConfig(), logger)

	_, err := client.FetchSchedule(context.Background(), "Work", "Zurich")

	var expired *errors.ErrSessionExpired
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "Work-Zurich", expired.Route)
}

func TestScheduleClient_UnknownDestination(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	client := clients.NewScheduleClient("http://127.0.0.1:1", "", testDestinations, testConfig(), logger)

	_, err := client.FetchSchedule(context.Background(), "Geneva", "Work")

	var unknown *errors.ErrUnknownDestination
	require.ErrorAs(t, err, &unknown)
}

func TestDecodeScheduleResponse(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		expected  []models.ScheduleEntry
		expectErr func(t *testing.T, err error)
	}{
		{
			name:     "empty schedule",
			body:     `{"data":{"hcvSchedules":{"schedules":[]}}}`,
			expected: []models.ScheduleEntry{},
		},
		{
			name: "other error",
			body: `{"errors":[{"message":"rate limited"}]}`,
			expectErr: func(t *testing.T, err error) {
				var format *errors.ErrScheduleFormat
				require.ErrorAs(t, err, &format)
			},
		},
		{
			name: "unauthorized only counts without data",
			body: `{"data":{"hcvSchedules":{"schedules":[{"day":"Today","seatsAvailable":1}]}},"errors":[{"message":"unauthorized"}]}`,
			expected: []models.ScheduleEntry{
				{DayLabel: "Today", SeatsAvailable: 1},
			},
		},
		{
			name: "not json",
			body: `<html>maintenance</html>`,
			expectErr: func(t *testing.T, err error) {
				var format *errors.ErrScheduleFormat
				require.ErrorAs(t, err, &format)
			},
		},
		{
			name: "missing schedules",
			body: `{"data":{"hcvSchedules":{"filterDays":[]}}}`,
			expectErr: func(t *testing.T, err error) {
				var format *errors.ErrScheduleFormat
				require.ErrorAs(t, err, &format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := clients.DecodeScheduleResponse([]byte(tt.body))

			if tt.expectErr != nil {
				tt.expectErr(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, entries)
		})
	}
}

func TestParseDestinations(t *testing.T) {
	destinations, err := clients.ParseDestinations([]byte(`{
		"Work": {"latitude": 47.36, "longitude": 8.53},
		"Zurich": {"latitude": 47.37, "longitude": 8.54, "name": "HB"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Work", "Zurich"}, destinations.Names())
	assert.Equal(t, "Zurich", destinations.AnyPlace())
	assert.InDelta(t, 8.54, destinations["Zurich"].Longitude, 1e-9)

	_, err = clients.ParseDestinations([]byte(`{"Zurich": {"latitude": 1, "longitude": 2}}`))

	var invalid *errors.ErrInvalidDestinations
	require.ErrorAs(t, err, &invalid)

	_, err = clients.ParseDestinations([]byte(`{"Work": {"latitude": 1, "longitude": 2}}`))
	require.ErrorAs(t, err, &invalid)
}
