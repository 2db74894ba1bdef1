package domain

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramClientAPI interface {
	// SendMessage экранирует текст и отправляет его в режиме MarkdownV2.
	SendMessage(ctx context.Context, chatID int64, text string) error

	SetMyCommands(ctx context.Context, commands []BotCommand) error

	GetBot() *tgbotapi.BotAPI
}

type BotCommand struct {
	Command     string
	Description string
}

// IncomingMessage - текстовое сообщение пользователя, полученное через long polling или вебхук.
type IncomingMessage struct {
	ChatID      int64
	Text        string
	DisplayName string
}

// DefaultCommands - меню команд бота.
var DefaultCommands = []BotCommand{
	{Command: "help", Description: "Show the command options"},
	{Command: "join", Description: "Ask the admins for access"},
	{Command: "add", Description: "Subscribe to a route"},
	{Command: "stop", Description: "Stop a subscription"},
	{Command: "info", Description: "List your subscriptions"},
	{Command: "status", Description: "Subscriptions per route"},
}
