package models

import (
	"strconv"
	"time"
)

// OutboundMessage - сообщение для доставки пользователю.
type OutboundMessage struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chatId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reply - ответ обработчика команды.
type Reply struct {
	ChatID int64
	Text   string
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
