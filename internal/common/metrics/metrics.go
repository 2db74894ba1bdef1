package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "shuttle"

	BotSubsystem     = "bot"
	TrackerSubsystem = "tracker"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Общие метрики.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)
)

// Бот метрики.
var (
	UserMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "user_messages_total",
			Help:      "Total number of user messages processed",
		},
		[]string{"command", "auth_state"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "notifications_total",
			Help:      "Total number of outbound messages by transport",
		},
		[]string{"transport", "status"},
	)
)

// Метрики опроса расписаний.
var (
	ScheduleFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "schedule_fetches_total",
			Help:      "Total number of schedule fetch attempts",
		},
		[]string{"route", "status"},
	)

	ScheduleFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "schedule_fetch_duration_seconds",
			Help:      "Schedule fetch duration in seconds (p50, p95, p99)",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"route"},
	)

	ScheduleEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "schedule_events_total",
			Help:      "Total number of detected schedule events",
		},
		[]string{"route", "kind"},
	)

	ActiveRoutes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "active_routes",
			Help:      "Number of routes with a running poller",
		},
	)

	EvictedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: TrackerSubsystem,
			Name:      "evicted_entries_total",
			Help:      "Total number of schedule dates removed by the retention sweep",
		},
	)
)

func RecordHTTPRequest(service, method, endpoint string, statusCode int, duration time.Duration) {
	status := StatusSuccess
	if statusCode >= 400 {
		status = StatusError
	}

	HTTPRequestsTotal.WithLabelValues(service, method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(service, method, endpoint).Observe(duration.Seconds())
}

func RecordUserMessage(command, authState string) {
	UserMessagesTotal.WithLabelValues(command, authState).Inc()
}

func RecordNotification(transport, status string) {
	NotificationsTotal.WithLabelValues(transport, status).Inc()
}

func RecordScheduleFetch(route, status string, duration time.Duration) {
	ScheduleFetchesTotal.WithLabelValues(route, status).Inc()
	ScheduleFetchDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func RecordScheduleEvent(route, kind string) {
	ScheduleEventsTotal.WithLabelValues(route, kind).Inc()
}

func SetActiveRoutes(count int) {
	ActiveRoutes.Set(float64(count))
}

func RecordEviction(count int) {
	EvictedEntriesTotal.Add(float64(count))
}
