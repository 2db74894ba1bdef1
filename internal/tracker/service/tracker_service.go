package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/schedule"
)

type SubscriptionReader interface {
	FindByRoute(ctx context.Context, route models.Route) ([]*models.Subscription, error)
}

type ActiveUserReader interface {
	FindActive(ctx context.Context) ([]*models.User, error)
}

type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TrackerService превращает изменения расписания в уведомления подписчикам.
type TrackerService struct {
	subs     SubscriptionReader
	users    ActiveUserReader
	notifier Notifier
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewTrackerService(subs SubscriptionReader, users ActiveUserReader, notifier Notifier, logger *slog.Logger) *TrackerService {
	return &TrackerService{
		subs:     subs,
		users:    users,
		notifier: notifier,
		tracer:   otel.Tracer("github.com/central-university-dev/go-shuttle/internal/tracker/service"),
		logger:   logger,
	}
}

// HandleSnapshot находит изменения между previous и incoming и рассылает их подписчикам.
// Ошибка возвращается только если не удалось прочитать подписки; сбои доставки логируются.
func (s *TrackerService) HandleSnapshot(
	ctx context.Context,
	route models.Route,
	previous, incoming models.Snapshot,
	initial bool,
) error {
	events := schedule.DetectChanges(route, previous, incoming, initial)
	if len(events) == 0 {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "TrackerService.HandleSnapshot", trace.WithAttributes(
		attribute.String("route", route.String()),
		attribute.Int("events", len(events)),
		attribute.Bool("initial", initial),
	))
	defer span.End()

	for _, event := range events {
		metrics.RecordScheduleEvent(route.String(), event.Kind.String())
	}

	subs, err := s.subs.FindByRoute(ctx, route)
	if err != nil {
		return fmt.Errorf("ошибка при получении подписчиков маршрута %s: %w", route, err)
	}

	messages := GroupByRecipient(events, subs)

	s.logger.Info("Обнаружены изменения расписания",
		"route", route,
		"events", len(events),
		"recipients", len(messages),
	)

	s.deliver(ctx, messages)

	return nil
}

// Dispatch отправляет по одному сообщению каждому получателю.
func (s *TrackerService) Dispatch(ctx context.Context, messages []models.Reply) {
	s.deliver(ctx, messages)
}

// NotifyAll рассылает текст всем незаблокированным пользователям.
func (s *TrackerService) NotifyAll(ctx context.Context, text string) error {
	users, err := s.users.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при получении активных пользователей: %w", err)
	}

	messages := make([]models.Reply, 0, len(users))
	for _, user := range users {
		messages = append(messages, models.Reply{ChatID: user.ChatID, Text: text})
	}

	s.deliver(ctx, messages)

	return nil
}

func (s *TrackerService) deliver(ctx context.Context, messages []models.Reply) {
	var errs error

	for _, msg := range messages {
		if err := s.notifier.Send(ctx, msg.ChatID, msg.Text); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("чат %d: %w", msg.ChatID, err))
		}
	}

	if errs != nil {
		s.logger.Error("Не все уведомления доставлены",
			"error", errs,
			"failed", len(multierr.Errors(errs)),
			"total", len(messages),
		)
	}
}

// GroupByRecipient собирает события по получателям: подписка должна совпадать по дню недели,
// а для освободившихся мест еще и иметь NotifySeats. Получатели упорядочены по chatID,
// строки внутри сообщения идут в порядке событий.
func GroupByRecipient(events []models.ScheduleEvent, subs []*models.Subscription) []models.Reply {
	type key struct {
		chatID  int64
		route   models.Route
		weekday int
	}

	index := make(map[key]*models.Subscription, len(subs))
	for _, sub := range subs {
		index[key{chatID: sub.ChatID, route: sub.Route, weekday: int(sub.Weekday)}] = sub
	}

	chatIDs := make([]int64, 0)
	seen := make(map[int64]struct{})

	for _, sub := range subs {
		if _, ok := seen[sub.ChatID]; !ok {
			seen[sub.ChatID] = struct{}{}
			chatIDs = append(chatIDs, sub.ChatID)
		}
	}

	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })

	replies := make([]models.Reply, 0)

	for _, chatID := range chatIDs {
		lines := make([]string, 0)

		for _, event := range events {
			sub, ok := index[key{chatID: chatID, route: event.Route, weekday: int(event.Weekday)}]
			if !ok {
				continue
			}

			if event.Kind == models.EventSeatsFreed && !sub.NotifySeats {
				continue
			}

			lines = append(lines, event.Line())
		}

		if len(lines) > 0 {
			replies = append(replies, models.Reply{ChatID: chatID, Text: strings.Join(lines, "\n")})
		}
	}

	return replies
}
