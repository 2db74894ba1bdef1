package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	domainerrors "github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

// MessageHandler доставляет сообщение пользователю, обычно это Telegram клиент.
type MessageHandler interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader         MessageReader
	dlqWriter      MessageWriter
	messageHandler MessageHandler
	logger         *slog.Logger
	topic          string
	dlqTopic       string
}

func NewConsumer(
	brokers []string,
	groupID string,
	topic string,
	dlqTopic string,
	messageHandler MessageHandler,
	logger *slog.Logger,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 1 * time.Second,
		Logger:         kafka.LoggerFunc(logger.Debug),
		ErrorLogger:    kafka.LoggerFunc(logger.Error),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return NewConsumerWithIO(reader, dlqWriter, topic, dlqTopic, messageHandler, logger)
}

func NewConsumerWithIO(
	reader MessageReader,
	dlqWriter MessageWriter,
	topic string,
	dlqTopic string,
	messageHandler MessageHandler,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		reader:         reader,
		dlqWriter:      dlqWriter,
		messageHandler: messageHandler,
		logger:         logger,
		topic:          topic,
		dlqTopic:       dlqTopic,
	}
}

// Start запускает чтение топика в отдельной горутине до отмены ctx.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("Запуск потребления сообщений из Kafka",
		"topic", c.topic,
	)

	go func() {
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info("Остановка потребления сообщений из Kafka")
					return
				}

				c.logger.Error("Ошибка при чтении сообщения из Kafka",
					"error", err,
				)

				continue
			}

			c.logger.Debug("Получено сообщение из Kafka",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)

			if err := c.ProcessMessage(ctx, &msg); err != nil {
				c.logger.Error("Ошибка при обработке сообщения",
					"error", err,
				)
			}
		}
	}()
}

// ProcessMessage доставляет одно исходящее сообщение. Некорректные сообщения уходят в DLQ,
// ошибка доставки возвращается без повторов.
func (c *Consumer) ProcessMessage(ctx context.Context, msg *kafka.Message) error {
	var outbound models.OutboundMessage

	if err := json.Unmarshal(msg.Value, &outbound); err != nil {
		c.deadLetter(ctx, msg.Value, fmt.Sprintf("Ошибка десериализации: %s", err))

		return fmt.Errorf("ошибка при десериализации сообщения: %w", err)
	}

	if outbound.ChatID == 0 {
		err := &domainerrors.ErrMissingChatIDInMessage{}
		c.deadLetter(ctx, msg.Value, err.Error())

		return err
	}

	if outbound.Text == "" {
		err := &domainerrors.ErrEmptyMessageText{}
		c.deadLetter(ctx, msg.Value, err.Error())

		return err
	}

	if err := c.messageHandler.SendMessage(ctx, outbound.ChatID, outbound.Text); err != nil {
		metrics.RecordNotification("kafka_consumer", "error")

		return fmt.Errorf("ошибка при доставке сообщения %s в чат %d: %w", outbound.ID, outbound.ChatID, err)
	}

	metrics.RecordNotification("kafka_consumer", "success")

	c.logger.Debug("Сообщение доставлено",
		"id", outbound.ID,
		"chatID", outbound.ChatID,
	)

	return nil
}

func (c *Consumer) deadLetter(ctx context.Context, message []byte, errMsg string) {
	c.logger.Error("Некорректное сообщение, отправка в DLQ",
		"error", errMsg,
		"topic", c.dlqTopic,
	)

	if err := c.sendToDLQ(ctx, message, errMsg); err != nil {
		c.logger.Error("Ошибка при отправке сообщения в DLQ",
			"error", err,
		)
	}
}

func (c *Consumer) sendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	now := time.Now()

	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(now.Format(time.RFC3339))},
		},
		Time: now,
	})
	if err != nil {
		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}

	return c.dlqWriter.Close()
}
