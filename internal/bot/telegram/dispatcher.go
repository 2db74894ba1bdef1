package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/bot/domain"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type CommandHandler interface {
	Handle(ctx context.Context, chatID int64, text, displayName string) ([]models.Reply, error)
}

type ReplySender interface {
	Dispatch(ctx context.Context, messages []models.Reply)
}

// MessageHandler принимает входящие сообщения от поллера или вебхука.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg domain.IncomingMessage)
}

// Dispatcher передает сообщение обработчику команд и отправляет ответы.
type Dispatcher struct {
	commands CommandHandler
	sender   ReplySender
	onFatal  func(error)
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDispatcher(commands CommandHandler, sender ReplySender, onFatal func(error), timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		commands: commands,
		sender:   sender,
		onFatal:  onFatal,
		timeout:  timeout,
		logger:   logger,
	}
}

func (d *Dispatcher) HandleMessage(ctx context.Context, msg domain.IncomingMessage) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Debug("Получено сообщение",
		"chatID", msg.ChatID,
		"name", msg.DisplayName,
		"text", msg.Text,
	)

	replies, err := d.commands.Handle(ctx, msg.ChatID, msg.Text, msg.DisplayName)

	if len(replies) > 0 {
		d.sender.Dispatch(ctx, replies)
	}

	if err == nil {
		return
	}

	if errors.Is(err, &domainerrors.ErrSessionExpired{}) {
		d.logger.Error("Сессия источника расписания истекла при обработке команды",
			"error", err,
			"chatID", msg.ChatID,
		)

		if d.onFatal != nil {
			d.onFatal(err)
		}

		return
	}

	d.logger.Error("Ошибка при обработке сообщения",
		"error", err,
		"chatID", msg.ChatID,
	)
}
