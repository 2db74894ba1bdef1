package notify

import (
	"context"
	"log/slog"
)

type FallbackNotifier struct {
	primary   Notifier
	secondary Notifier
	logger    *slog.Logger
}

func NewFallbackNotifier(primary, secondary Notifier, logger *slog.Logger) *FallbackNotifier {
	return &FallbackNotifier{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (n *FallbackNotifier) Send(ctx context.Context, chatID int64, text string) error {
	err := n.primary.Send(ctx, chatID, text)
	if err == nil {
		return nil
	}

	n.logger.Warn("Основной транспорт недоступен, переключаемся на резервный",
		"primaryError", err,
		"chatID", chatID,
	)

	if fallbackErr := n.secondary.Send(ctx, chatID, text); fallbackErr != nil {
		return err
	}

	n.logger.Info("Сообщение успешно отправлено через резервный транспорт",
		"chatID", chatID,
	)

	return nil
}
