package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-shuttle/internal/bot/domain"
)

var markdownEscaper = strings.NewReplacer(
	".", `\.`,
	"-", `\-`,
	"<", `\<`,
	">", `\>`,
	"(", `\(`,
	")", `\)`,
	"[", `\[`,
	"]", `\]`,
	"!", `\!`,
	"|", `\|`,
	"=", `\=`,
)

// EscapeMarkdownV2 экранирует служебные символы MarkdownV2, оставляя * и _ для разметки текстов бота.
func EscapeMarkdownV2(text string) string {
	return markdownEscaper.Replace(text)
}

type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

func NewTelegramClient(token string, logger *slog.Logger) (*TelegramClient, error) {
	return NewTelegramClientWithEndpoint(token, tgbotapi.APIEndpoint, logger)
}

// NewTelegramClientWithEndpoint позволяет подменить адрес Bot API (используется в тестах).
func NewTelegramClientWithEndpoint(token, endpoint string, logger *slog.Logger) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании Telegram клиента: %w", err)
	}

	logger.Info("Авторизация в Telegram выполнена", "username", bot.Self.UserName)

	return &TelegramClient{
		bot:    bot,
		logger: logger,
	}, nil
}

func (c *TelegramClient) SendMessage(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, EscapeMarkdownV2(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка при отправке сообщения: %w", err)
	}

	return nil
}

func (c *TelegramClient) SetMyCommands(_ context.Context, commands []domain.BotCommand) error {
	botAPICommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botAPICommands = append(botAPICommands, tgbotapi.BotCommand{
			Command:     cmd.Command,
			Description: cmd.Description,
		})
	}

	if _, err := c.bot.Request(tgbotapi.NewSetMyCommands(botAPICommands...)); err != nil {
		return fmt.Errorf("ошибка при установке команд бота: %w", err)
	}

	return nil
}

func (c *TelegramClient) GetBot() *tgbotapi.BotAPI {
	return c.bot
}
