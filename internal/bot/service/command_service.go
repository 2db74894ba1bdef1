package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/central-university-dev/go-shuttle/internal/common"
	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
	"github.com/central-university-dev/go-shuttle/internal/tracker/repository"
	"github.com/central-university-dev/go-shuttle/pkg/txs"
)

// RouteLifecycle запускает и останавливает опрос маршрутов.
type RouteLifecycle interface {
	Activate(ctx context.Context, route models.Route, announce bool) error
	Deactivate(route models.Route)
	Snapshot(route models.Route) (models.Snapshot, bool)
}

// commandPolicy - минимальный уровень доступа для команды. join обрабатывается до проверки.
var commandPolicy = map[models.CommandType]models.AuthState{
	models.CommandAdd:     models.AuthMember,
	models.CommandStop:    models.AuthMember,
	models.CommandStopAll: models.AuthMember,
	models.CommandInfo:    models.AuthMember,
	models.CommandStatus:  models.AuthMember,
	models.CommandHelp:    models.AuthMember,
	models.CommandAdmin:   models.AuthAdmin,
	models.CommandUnknown: models.AuthMember,
}

func allowed(state models.AuthState, command models.CommandType) bool {
	required, ok := commandPolicy[command]
	if !ok {
		return false
	}

	return state >= required
}

type Options struct {
	// BlockCascade удаляет подписки пользователя при блокировке.
	BlockCascade bool
}

// CommandService обрабатывает входящие сообщения пользователей и возвращает ответы для отправки.
type CommandService struct {
	users     repository.UserRepository
	subs      repository.SubscriptionRepository
	txManager txs.Transactor
	lifecycle RouteLifecycle
	resolver  *common.RouteResolver
	opts      Options
	chats     *keyedMutex
	routesMu  sync.Mutex
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewCommandService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	txManager txs.Transactor,
	lifecycle RouteLifecycle,
	resolver *common.RouteResolver,
	opts Options,
	logger *slog.Logger,
) *CommandService {
	return &CommandService{
		users:     users,
		subs:      subs,
		txManager: txManager,
		lifecycle: lifecycle,
		resolver:  resolver,
		opts:      opts,
		chats:     newKeyedMutex(),
		tracer:    otel.Tracer("github.com/central-university-dev/go-shuttle/internal/bot/service"),
		logger:    logger,
	}
}

// Handle обрабатывает одно сообщение. Ответы возвращаются даже вместе с ошибкой:
// при сбое хранилища пользователь получает общее сообщение об ошибке.
func (s *CommandService) Handle(ctx context.Context, chatID int64, text, displayName string) ([]models.Reply, error) {
	command := models.ParseCommand(chatID, text, displayName)

	ctx, span := s.tracer.Start(ctx, "CommandService.Handle", trace.WithAttributes(
		attribute.Int64("chat_id", chatID),
		attribute.String("command", command.Name),
	))
	defer span.End()

	out := &replies{}

	user, err := s.admit(ctx, command, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return s.failed(out, chatID, err)
	}

	if user == nil {
		return out.list, nil
	}

	state := user.AuthState()
	span.SetAttributes(attribute.String("auth_state", state.String()))
	metrics.RecordUserMessage(string(command.Type), state.String())

	if !allowed(state, command.Type) {
		s.logger.Debug("Команда отклонена политикой доступа",
			"chatID", chatID,
			"command", command.Name,
			"authState", state.String(),
		)

		return out.list, nil
	}

	if err := s.dispatch(ctx, command, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return s.failed(out, chatID, err)
	}

	return out.list, nil
}

// admit находит или создает пользователя и обрабатывает join. Возвращает nil, если
// сообщение на этом обработано.
func (s *CommandService) admit(ctx context.Context, command *models.Command, out *replies) (*models.User, error) {
	unlock := s.chats.Lock(command.ChatID)
	defer unlock()

	user, err := s.users.FindByID(ctx, command.ChatID)

	switch {
	case errors.Is(err, &domainerrors.ErrUserNotFound{}):
		user = models.NewPendingUser(command.ChatID, command.DisplayName)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}

		s.logger.Info("Новый пользователь",
			"chatID", command.ChatID,
			"name", command.DisplayName,
		)

		out.add(command.ChatID, textWelcome)
	case err != nil:
		return nil, err
	}

	if command.Name == "" {
		return nil, nil
	}

	if command.Type == models.CommandJoin {
		metrics.RecordUserMessage(string(command.Type), user.AuthState().String())

		if user.Pending {
			if err := s.requestJoin(ctx, user, out); err != nil {
				return nil, err
			}
		}

		return nil, nil
	}

	return user, nil
}

func (s *CommandService) requestJoin(ctx context.Context, user *models.User, out *replies) error {
	if err := s.users.MarkRequestSent(ctx, user.ChatID); err != nil {
		return err
	}

	admins, err := s.users.FindAdmins(ctx)
	if err != nil {
		return err
	}

	text := joinRequestText(user)
	for _, admin := range admins {
		out.add(admin.ChatID, text)
	}

	out.add(user.ChatID, textAdminsNotified)

	s.logger.Info("Запрос на вступление отправлен администраторам",
		"chatID", user.ChatID,
		"admins", len(admins),
	)

	return nil
}

func (s *CommandService) dispatch(ctx context.Context, command *models.Command, out *replies) error {
	//nolint:exhaustive // join обработан в admit
	switch command.Type {
	case models.CommandAdd:
		return s.handleAdd(ctx, command, out)
	case models.CommandStop:
		return s.handleStop(ctx, command, out)
	case models.CommandStopAll:
		return s.stopAll(ctx, command.ChatID, out)
	case models.CommandInfo:
		return s.handleInfo(ctx, command, out)
	case models.CommandStatus:
		return s.handleStatus(ctx, command, out)
	case models.CommandHelp:
		out.add(command.ChatID, textHelp)
		return nil
	case models.CommandAdmin:
		return s.handleAdmin(ctx, command, out)
	default:
		out.add(command.ChatID, unknownCommandText(command.Name))
		return nil
	}
}

type addParams struct {
	days  []time.Weekday
	seats bool
}

func parseAddParams(args []string) (addParams, error) {
	params := addParams{days: models.ServiceDays, seats: true}

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "days="):
			days := make([]time.Weekday, 0)

			for _, name := range strings.Split(strings.TrimPrefix(arg, "days="), ",") {
				day, ok := models.ParseWeekday(name)
				if !ok || !models.IsServiceDay(day) {
					return addParams{}, &domainerrors.ErrUnknownWeekday{Value: models.Capitalize(name)}
				}

				days = append(days, day)
			}

			params.days = models.UniqueWeekdays(days)
		case strings.HasPrefix(arg, "seats="):
			value := strings.TrimPrefix(arg, "seats=")
			if value != "true" && value != "false" {
				return addParams{}, &domainerrors.ErrInvalidSeatsFlag{Value: value}
			}

			params.seats = value == "true"
		default:
			return addParams{}, &domainerrors.ErrUnknownParameter{Name: arg}
		}
	}

	return params, nil
}

func addErrorText(err error) string {
	var (
		weekdayErr *domainerrors.ErrUnknownWeekday
		seatsErr   *domainerrors.ErrInvalidSeatsFlag
		paramErr   *domainerrors.ErrUnknownParameter
	)

	switch {
	case errors.As(err, &weekdayErr):
		return "*Error:* Unknown day parameter " + weekdayErr.Value
	case errors.As(err, &seatsErr):
		return "*Error:* Unknown seats parameter " + seatsErr.Value
	case errors.As(err, &paramErr):
		return "*Error:* Unknown parameter " + paramErr.Name
	default:
		return textInternalError
	}
}

func (s *CommandService) handleAdd(ctx context.Context, command *models.Command, out *replies) error {
	routeArg, ok := command.Arg(0)
	if !ok {
		out.add(command.ChatID, textAddNoRoute)
		return nil
	}

	routes, err := s.resolver.Resolve(routeArg)
	if err != nil {
		out.add(command.ChatID, fmt.Sprintf("*Error:* Couldn't find route '%s'", routeArg))
		return nil
	}

	params, err := parseAddParams(command.Args[1:])
	if err != nil {
		out.add(command.ChatID, addErrorText(err))
		return nil
	}

	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	lines := make([]string, 0, len(routes))
	subscribed := make([]models.Route, 0, len(routes))

	for _, route := range routes {
		if err := s.lifecycle.Activate(ctx, route, false); err != nil {
			if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
				return err
			}

			s.logger.Warn("Не удалось активировать маршрут при подписке",
				"error", err,
				"route", route,
				"chatID", command.ChatID,
			)

			lines = append(lines, fmt.Sprintf("*Error:* Couldn't subscribe to route %s, please try again later", route))

			continue
		}

		existed, err := s.subs.Replace(ctx, command.ChatID, route, params.days, params.seats)
		if err != nil {
			if teardownErr := s.teardown(ctx, []models.Route{route}); teardownErr != nil {
				s.logger.Warn("Не удалось остановить маршрут после ошибки подписки",
					"error", teardownErr,
					"route", route,
				)
			}

			return err
		}

		if existed {
			lines = append(lines, "Updated route "+route.String())
		} else {
			lines = append(lines, "Subscribed to route "+route.String())
		}

		subscribed = append(subscribed, route)
	}

	s.logger.Info("Подписка обновлена",
		"chatID", command.ChatID,
		"routes", subscribed,
		"days", len(params.days),
		"seats", params.seats,
	)

	if params.seats {
		if catchUp := s.catchUp(subscribed, params.days); len(catchUp) > 0 {
			lines = append(lines, "")
			lines = append(lines, catchUp...)
		}
	}

	out.add(command.ChatID, strings.Join(lines, "\n"))

	return nil
}

// catchUp перечисляет уже известные даты со свободными местами по выбранным дням.
func (s *CommandService) catchUp(routes []models.Route, days []time.Weekday) []string {
	selected := weekdaySet(days)
	lines := make([]string, 0)

	for _, route := range routes {
		snapshot, ok := s.lifecycle.Snapshot(route)
		if !ok {
			continue
		}

		for _, key := range snapshot.Keys() {
			day := snapshot[key]
			if day.Seats == 0 {
				continue
			}

			weekday, ok := models.WeekdayOfKey(key)
			if !ok {
				continue
			}

			if _, ok := selected[weekday]; ok {
				lines = append(lines, catchUpLine(route, day.Seats, key))
			}
		}
	}

	return lines
}

func (s *CommandService) handleStop(ctx context.Context, command *models.Command, out *replies) error {
	routeArg, ok := command.Arg(0)
	if !ok {
		out.add(command.ChatID, textStopNoRoute)
		return nil
	}

	if routeArg == "all" {
		return s.stopAll(ctx, command.ChatID, out)
	}

	routes, err := s.resolver.Resolve(routeArg)
	if err != nil {
		out.add(command.ChatID, "*Error:* Couldn't find route "+routeArg)
		return nil
	}

	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	removed, err := s.subs.Delete(ctx, command.ChatID, routes)
	if err != nil {
		return err
	}

	out.add(command.ChatID, stopText(routes, removed))

	return s.teardown(ctx, removed)
}

func (s *CommandService) stopAll(ctx context.Context, chatID int64, out *replies) error {
	s.routesMu.Lock()
	defer s.routesMu.Unlock()

	removed, err := s.subs.DeleteAll(ctx, chatID)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		out.add(chatID, textNoCurrent)
		return nil
	}

	out.add(chatID, stopText(removed, removed))

	return s.teardown(ctx, removed)
}

func stopText(requested, removed []models.Route) string {
	done := make(map[models.Route]struct{}, len(removed))
	for _, route := range removed {
		done[route] = struct{}{}
	}

	lines := make([]string, 0, len(requested))

	for _, route := range requested {
		if _, ok := done[route]; ok {
			lines = append(lines, fmt.Sprintf("*%s*: Unsubscribed from route %s", route, route))
		} else {
			lines = append(lines, fmt.Sprintf("*%s*: No subscription for route %s", route, route))
		}
	}

	return strings.Join(lines, "\n")
}

// teardown деактивирует маршруты, у которых не осталось подписчиков. Вызывается под routesMu.
func (s *CommandService) teardown(ctx context.Context, routes []models.Route) error {
	if len(routes) == 0 {
		return nil
	}

	remaining, err := s.subs.ActiveRoutes(ctx)
	if err != nil {
		return err
	}

	active := make(map[models.Route]struct{}, len(remaining))
	for _, route := range remaining {
		active[route] = struct{}{}
	}

	for _, route := range routes {
		if _, ok := active[route]; !ok {
			s.lifecycle.Deactivate(route)
		}
	}

	return nil
}

func (s *CommandService) handleInfo(ctx context.Context, command *models.Command, out *replies) error {
	subs, err := s.subs.FindByChatID(ctx, command.ChatID)
	if err != nil {
		return err
	}

	if len(subs) == 0 {
		out.add(command.ChatID, textInfoEmpty)
		return nil
	}

	grouped := models.GroupSubscriptions(subs)
	lines := make([]string, 0, len(grouped))

	for _, sub := range grouped {
		lines = append(lines, subscriptionLine(sub))
	}

	out.add(command.ChatID, textInfoHeader+strings.Join(lines, "\n"))

	return nil
}

func (s *CommandService) handleStatus(ctx context.Context, command *models.Command, out *replies) error {
	statuses, err := s.subs.RouteStatus(ctx)
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		out.add(command.ChatID, textStatusEmpty)
		return nil
	}

	lines := make([]string, 0, len(statuses))
	for _, status := range statuses {
		lines = append(lines, fmt.Sprintf("*%s:* %d subscriptions", status.Route, status.Subscribers))
	}

	out.add(command.ChatID, textStatusHeader+strings.Join(lines, "\n"))

	return nil
}

func (s *CommandService) failed(out *replies, chatID int64, err error) ([]models.Reply, error) {
	s.logger.Error("Ошибка при обработке команды",
		"error", err,
		"chatID", chatID,
	)

	if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
		return out.list, err
	}

	out.add(chatID, textInternalError)

	return out.list, fmt.Errorf("ошибка при обработке команды чата %d: %w", chatID, err)
}

type replies struct {
	list []models.Reply
}

func (r *replies) add(chatID int64, text string) {
	r.list = append(r.list, models.Reply{ChatID: chatID, Text: text})
}
