package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type userTransition func(ctx context.Context, issuer, target int64, out *replies) error

func (s *CommandService) handleAdmin(ctx context.Context, command *models.Command, out *replies) error {
	sub, ok := command.Arg(0)
	if !ok {
		out.add(command.ChatID, textAdminUsage)
		return nil
	}

	switch sub {
	case "users":
		stats, err := s.users.Stats(ctx)
		if err != nil {
			return err
		}

		out.add(command.ChatID, statsText(stats))

		return nil
	case "requests":
		return s.listUsers(ctx, command.ChatID, out, s.users.FindRequests, "Requests received:", "There are no pending requests")
	case "blocked":
		return s.listUsers(ctx, command.ChatID, out, s.users.FindBlocked, "Blocked users:", "There are no blocked users")
	case "admins":
		return s.listUsers(ctx, command.ChatID, out, s.users.FindAdmins, "Admins:", "There are no admins ???")
	case "active":
		return s.listUsers(ctx, command.ChatID, out, s.users.FindActive, "Active users:", "There are no active users ???")
	}

	var transition userTransition

	switch sub {
	case "add":
		transition = s.addUser
	case "admin":
		transition = s.makeAdmin
	case "block":
		transition = s.blockUser
	default:
		out.add(command.ChatID, unknownAdminCommandText(sub))
		return nil
	}

	ids, ok := command.Arg(1)
	if !ok {
		out.add(command.ChatID, "Please specify a chat Id to use command "+sub)
		return nil
	}

	for _, raw := range strings.Split(ids, ",") {
		target, err := parseChatID(raw)
		if err != nil {
			out.add(command.ChatID, fmt.Sprintf("Error: Chat Id '%s' is not a number", raw))
			continue
		}

		if err := s.transition(ctx, transition, command.ChatID, target, out); err != nil {
			if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
				return err
			}

			s.logger.Error("Ошибка при изменении пользователя",
				"error", err,
				"issuer", command.ChatID,
				"target", target,
				"command", sub,
			)

			out.add(command.ChatID, fmt.Sprintf("Error while updating user %d.", target))
		}
	}

	return nil
}

func (s *CommandService) transition(ctx context.Context, fn userTransition, issuer, target int64, out *replies) error {
	unlock := s.chats.Lock(target)
	defer unlock()

	return fn(ctx, issuer, target, out)
}

func (s *CommandService) listUsers(
	ctx context.Context,
	chatID int64,
	out *replies,
	find func(ctx context.Context) ([]*models.User, error),
	header, empty string,
) error {
	users, err := find(ctx)
	if err != nil {
		return err
	}

	out.add(chatID, userListText(header, empty, users))

	return nil
}

func parseChatID(raw string) (int64, error) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, &domainerrors.ErrInvalidChatID{Value: raw}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domainerrors.ErrInvalidChatID{Value: raw}
	}

	return id, nil
}

// findTarget возвращает nil без ошибки, если пользователя нет.
func (s *CommandService) findTarget(ctx context.Context, target int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, target)
	if errors.Is(err, &domainerrors.ErrUserNotFound{}) {
		return nil, nil
	}

	return user, err
}

func (s *CommandService) notifyAdmins(ctx context.Context, text string, except int64, out *replies) error {
	admins, err := s.users.FindAdmins(ctx)
	if err != nil {
		return err
	}

	for _, admin := range admins {
		if admin.ChatID != except {
			out.add(admin.ChatID, text)
		}
	}

	return nil
}

func (s *CommandService) addUser(ctx context.Context, issuer, target int64, out *replies) error {
	user, err := s.findTarget(ctx, target)
	if err != nil {
		return err
	}

	if user == nil {
		out.add(issuer, fmt.Sprintf("*Error:* There is no request from user '%d'", target))
		return nil
	}

	if !user.Blocked {
		out.add(issuer, fmt.Sprintf("User '%d' wasn't blocked", target))
		return nil
	}

	messages := make([]string, 0, 2)
	if !user.Pending {
		messages = append(messages, textWasntPending)
	}

	user.Blocked = false
	user.Pending = false
	user.RequestSent = false

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	done := fmt.Sprintf("Added user %d.", target)

	out.add(target, textAdded)
	out.add(issuer, strings.Join(append(messages, done), "\n"))

	s.logger.Info("Пользователь добавлен", "issuer", issuer, "target", target)

	return s.notifyAdmins(ctx, done, issuer, out)
}

func (s *CommandService) makeAdmin(ctx context.Context, issuer, target int64, out *replies) error {
	user, err := s.findTarget(ctx, target)
	if err != nil {
		return err
	}

	if user == nil {
		out.add(issuer, fmt.Sprintf("*Error:* There is no user '%d'", target))
		return nil
	}

	if !user.Blocked && user.Admin {
		out.add(issuer, fmt.Sprintf("User '%d' wasn't blocked and already is admin", target))
		return nil
	}

	messages := make([]string, 0, 3)
	if user.Admin {
		messages = append(messages, "User already was admin, but blocked.")
	}

	if !user.Pending {
		messages = append(messages, textWasntPending)
	}

	user.Blocked = false
	user.Pending = false
	user.Admin = true
	user.RequestSent = false

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	done := fmt.Sprintf("Made user %d admin.", target)

	out.add(target, textMadeAdmin)
	out.add(issuer, strings.Join(append(messages, done), "\n"))

	s.logger.Info("Пользователь назначен администратором", "issuer", issuer, "target", target)

	return s.notifyAdmins(ctx, done, issuer, out)
}

func (s *CommandService) blockUser(ctx context.Context, issuer, target int64, out *replies) error {
	if issuer == target {
		out.add(issuer, "*Error:* You cannot block yourself")
		return nil
	}

	user, err := s.findTarget(ctx, target)
	if err != nil {
		return err
	}

	if user == nil {
		out.add(issuer, fmt.Sprintf("*Error:* There is no request from user '%d'", target))
		return nil
	}

	if !user.Pending && user.Blocked {
		out.add(issuer, fmt.Sprintf("User '%d' is already blocked", target))
		return nil
	}

	messages := make([]string, 0, 2)
	if !user.Blocked {
		messages = append(messages, "User was added before.")
	}

	if !user.Pending {
		messages = append(messages, textWasntPending)
	}

	wasPending := user.Pending

	user.Blocked = true
	user.Pending = false
	user.Admin = false
	user.RequestSent = false

	var removed []models.Route

	if s.opts.BlockCascade {
		s.routesMu.Lock()
		defer s.routesMu.Unlock()
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}

		if !s.opts.BlockCascade {
			return nil
		}

		var err error

		removed, err = s.subs.DeleteAll(ctx, target)

		return err
	})
	if err != nil {
		return err
	}

	if wasPending {
		out.add(target, textDenied)
	} else {
		out.add(target, textBlocked)
	}

	if len(messages) > 0 {
		out.add(issuer, strings.Join(messages, "\n"))
	}

	s.logger.Info("Пользователь заблокирован",
		"issuer", issuer,
		"target", target,
		"removedRoutes", len(removed),
	)

	if err := s.notifyAdmins(ctx, fmt.Sprintf("Blocked user %d.", target), 0, out); err != nil {
		return err
	}

	return s.teardown(ctx, removed)
}
