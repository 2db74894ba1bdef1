package notify

import (
	"context"
	"log/slog"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
)

// Notifier доставляет один текст одному чату. Повторов нет: сбой доставки только логируется вызывающей стороной.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type TelegramNotifier struct {
	sender MessageSender
	logger *slog.Logger
}

func NewTelegramNotifier(sender MessageSender, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		logger: logger,
	}
}

func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	if err := n.sender.SendMessage(ctx, chatID, text); err != nil {
		metrics.RecordNotification("telegram", metrics.StatusError)

		n.logger.Error("Ошибка при отправке сообщения в Telegram",
			"error", err,
			"chatID", chatID,
		)

		return err
	}

	metrics.RecordNotification("telegram", metrics.StatusSuccess)

	return nil
}
