package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/central-university-dev/go-shuttle/internal/common/metrics"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier публикует исходящие сообщения в топик, откуда их доставляет консьюмер бота.
type KafkaNotifier struct {
	producer MessageWriter
	topic    string
	logger   *slog.Logger
	now      func() time.Time
}

func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	producer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return NewKafkaNotifierWithWriter(producer, topic, logger)
}

func NewKafkaNotifierWithWriter(producer MessageWriter, topic string, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		topic:    topic,
		logger:   logger,
		now:      time.Now,
	}
}

func (n *KafkaNotifier) Send(ctx context.Context, chatID int64, text string) error {
	message := models.OutboundMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Text:      text,
		CreatedAt: n.now().UTC(),
	}

	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации сообщения: %w", err)
	}

	// Ключ по чату сохраняет порядок сообщений одного получателя в пределах партиции.
	err = n.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(chatID, 10)),
		Value: value,
		Time:  message.CreatedAt,
	})
	if err != nil {
		metrics.RecordNotification("kafka", metrics.StatusError)

		n.logger.Error("Ошибка при отправке сообщения в Kafka",
			"error", err,
			"chatID", chatID,
			"topic", n.topic,
		)

		return fmt.Errorf("ошибка при отправке сообщения в Kafka: %w", err)
	}

	metrics.RecordNotification("kafka", metrics.StatusSuccess)

	n.logger.Debug("Сообщение отправлено в Kafka",
		"messageID", message.ID,
		"chatID", chatID,
	)

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
