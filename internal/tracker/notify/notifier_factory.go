package notify

import (
	"log/slog"
	"strings"

	"github.com/central-university-dev/go-shuttle/internal/config"
	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
)

type NotifierFactory struct {
	config *config.Config
	sender MessageSender
	logger *slog.Logger
	kafka  *KafkaNotifier
}

func NewNotifierFactory(config *config.Config, sender MessageSender, logger *slog.Logger) *NotifierFactory {
	return &NotifierFactory{
		config: config,
		sender: sender,
		logger: logger,
	}
}

// CreateNotifier при включенном FALLBACK_ENABLED и транспорте KAFKA пробует Telegram, если Kafka недоступна.
func (f *NotifierFactory) CreateNotifier() (Notifier, error) {
	transport := strings.ToUpper(f.config.MessageTransport)

	f.logger.Info("Создание нотификатора",
		"type", transport,
		"fallback", f.config.FallbackEnabled,
	)

	telegram := NewTelegramNotifier(f.sender, f.logger)

	switch transport {
	case config.TelegramTransport:
		return telegram, nil
	case config.KafkaTransport:
		brokers := strings.Split(f.config.KafkaBrokers, ",")
		f.kafka = NewKafkaNotifier(brokers, f.config.TopicNotifications, f.logger)

		if f.config.FallbackEnabled {
			return NewFallbackNotifier(f.kafka, telegram, f.logger), nil
		}

		return f.kafka, nil
	default:
		return nil, &errors.ErrUnknownTransport{Transport: f.config.MessageTransport}
	}
}

func (f *NotifierFactory) Close() error {
	if f.kafka == nil {
		return nil
	}

	return f.kafka.Close()
}
