package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/schedule"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ScheduleSource interface {
	FetchSchedule(ctx context.Context, origin, destination string) ([]models.ScheduleEntry, error)
}

// RoutePoller получает и нормализует расписание маршрута с ограниченным числом попыток.
type RoutePoller struct {
	source   ScheduleSource
	attempts int
	backoff  time.Duration
	now      func() time.Time
	tracer   trace.Tracer
	logger   *slog.Logger
}

type Option func(p *RoutePoller)

// WithClock подменяет часы, от которых считаются даты "Today" и "Tomorrow".
func WithClock(now func() time.Time) Option {
	return func(p *RoutePoller) {
		p.now = now
	}
}

func NewRoutePoller(source ScheduleSource, attempts int, backoff time.Duration, logger *slog.Logger, opts ...Option) *RoutePoller {
	if attempts < 1 {
		attempts = 1
	}

	p := &RoutePoller{
		source:   source,
		attempts: attempts,
		backoff:  backoff,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/central-university-dev/go-shuttle/internal/tracker/poller"),
		logger:   logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Fetch выполняет до attempts попыток запрос -> разбор -> нормализация.
// ErrSessionExpired возвращается сразу, без повторов.
func (p *RoutePoller) Fetch(ctx context.Context, route models.Route) (models.Snapshot, error) {
	ctx, span := p.tracer.Start(ctx, "RoutePoller.Fetch", trace.WithAttributes(
		attribute.String("route", route.String()),
	))
	defer span.End()

	origin, destination := route.Endpoints()

	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		snapshot, err := p.fetchOnce(ctx, origin, destination)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt), attribute.Int("days", len(snapshot)))
			return snapshot, nil
		}

		var expired *domainerrors.ErrSessionExpired
		if errors.As(err, &expired) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session expired")

			return nil, err
		}

		lastErr = err

		p.logger.Warn("Ошибка при получении расписания",
			"route", route,
			"attempt", attempt,
			"error", err,
		)

		if attempt == p.attempts {
			break
		}

		if err := p.wait(ctx, attempt); err != nil {
			lastErr = err
			break
		}
	}

	fetchErr := &domainerrors.ErrFetchFailed{
		Route:    route.String(),
		Attempts: p.attempts,
		Cause:    lastErr,
	}

	span.RecordError(fetchErr)
	span.SetStatus(codes.Error, "fetch failed")

	return nil, fetchErr
}

func (p *RoutePoller) fetchOnce(ctx context.Context, origin, destination string) (models.Snapshot, error) {
	route := models.NewRoute(origin, destination).String()
	start := time.Now()

	entries, err := p.source.FetchSchedule(ctx, origin, destination)
	if err != nil {
		metrics.RecordScheduleFetch(route, metrics.StatusError, time.Since(start))
		return nil, err
	}

	snapshot, err := schedule.Normalize(entries, p.now())
	if err != nil {
		metrics.RecordScheduleFetch(route, metrics.StatusError, time.Since(start))
		return nil, err
	}

	metrics.RecordScheduleFetch(route, metrics.StatusSuccess, time.Since(start))

	return snapshot, nil
}

func (p *RoutePoller) wait(ctx context.Context, attempt int) error {
	if p.backoff <= 0 {
		return nil
	}

	timer := time.NewTimer(p.backoff * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
