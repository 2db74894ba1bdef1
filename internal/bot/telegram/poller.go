package telegram

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-shuttle/internal/bot/domain"
)

// Poller получает сообщения через long polling. Сообщения обрабатываются последовательно.
type Poller struct {
	telegramClient domain.TelegramClientAPI
	handler        MessageHandler
	logger         *slog.Logger
	stopChan       chan struct{}
	done           chan struct{}
}

func NewPoller(telegramClient domain.TelegramClientAPI, handler MessageHandler, logger *slog.Logger) *Poller {
	return &Poller{
		telegramClient: telegramClient,
		handler:        handler,
		logger:         logger,
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start удаляет вебхук, иначе Bot API не отдает обновления через getUpdates.
func (p *Poller) Start() error {
	p.logger.Info("Запуск Telegram поллера")

	bot := p.telegramClient.GetBot()
	if bot == nil {
		return errors.New("не удалось получить доступ к API бота")
	}

	if err := DeleteWebhook(bot, false); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}

	updates := bot.GetUpdatesChan(u)

	go func() {
		defer close(p.done)

		for {
			select {
			case <-p.stopChan:
				p.logger.Info("Получен сигнал остановки поллера")
				return
			case update, ok := <-updates:
				if !ok {
					return
				}

				if msg, ok := incomingFromUpdate(&update); ok {
					p.handler.HandleMessage(context.Background(), msg)
				}
			}
		}
	}()

	return nil
}

// Stop дожидается обработки текущего сообщения.
func (p *Poller) Stop() {
	p.logger.Info("Остановка Telegram поллера")

	if bot := p.telegramClient.GetBot(); bot != nil {
		bot.StopReceivingUpdates()
	}

	close(p.stopChan)
	<-p.done
}

func incomingFromUpdate(update *tgbotapi.Update) (domain.IncomingMessage, bool) {
	if update.Message == nil || update.Message.Chat == nil {
		return domain.IncomingMessage{}, false
	}

	if update.Message.Chat.ID == 0 || update.Message.Text == "" {
		return domain.IncomingMessage{}, false
	}

	return domain.IncomingMessage{
		ChatID:      update.Message.Chat.ID,
		Text:        update.Message.Text,
		DisplayName: update.Message.Chat.FirstName,
	}, true
}
