package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

const (
	// NotificationEventType тип события с сообщением об ошибке корзины
	NotificationEventType = "cart.notification.error"
	// NotificationEventVersion версия схемы события
	NotificationEventVersion = 1
)

// NotificationEvent JSON payload события в топике уведомлений корзины
type NotificationEvent struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	EventVersion int    `json:"event_version"`
	OccurredAt   string `json:"occurred_at"`
	CartKey      string `json:"cart_key"`
	Message      string `json:"message"`
}

// messageWriter часть kafka.Writer, которую использует publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotificationPublisher реализует service.Notifier, публикуя сообщения об ошибках в Kafka
// Writer асинхронный: ReportError не ждёт подтверждения брокера, ошибки доставки только логируются
type KafkaNotificationPublisher struct {
	logger  *zap.Logger
	writer  messageWriter
	topic   string
	cartKey string
	now     func() time.Time
}

// NewKafkaNotificationPublisher создаёт новый Kafka publisher для уведомлений корзины
// cartKey становится ключом сообщения: все уведомления одной корзины попадают в одну партицию
func NewKafkaNotificationPublisher(logger *zap.Logger, brokers []string, topic, cartKey string) *KafkaNotificationPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to deliver cart notification",
					zap.Error(err),
					zap.String("topic", topic),
					zap.Int("messages", len(messages)),
				)
			}
		},
	}

	return newKafkaNotificationPublisher(logger, writer, topic, cartKey)
}

func newKafkaNotificationPublisher(logger *zap.Logger, writer messageWriter, topic, cartKey string) *KafkaNotificationPublisher {
	return &KafkaNotificationPublisher{
		logger:  logger,
		writer:  writer,
		topic:   topic,
		cartKey: cartKey,
		now:     time.Now,
	}
}

// Close закрывает Kafka writer, дожидаясь отправки буфера
func (p *KafkaNotificationPublisher) Close() error {
	return p.writer.Close()
}

// ReportError реализует service.Notifier
func (p *KafkaNotificationPublisher) ReportError(ctx context.Context, message string) {
	logger := platformobservability.L(ctx, p.logger)

	event := NotificationEvent{
		EventID:      uuid.New().String(),
		EventType:    NotificationEventType,
		EventVersion: NotificationEventVersion,
		OccurredAt:   p.now().UTC().Format(time.RFC3339),
		CartKey:      p.cartKey,
		Message:      message,
	}

	valueBytes, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal cart notification", zap.Error(err))
		return
	}

	// контекст операции может быть отменён сразу после возврата: постановка в очередь от него не зависит
	err = p.writer.WriteMessages(context.WithoutCancel(ctx), kafka.Message{
		Key:   []byte(p.cartKey),
		Value: valueBytes,
	})
	if err != nil {
		logger.Error("failed to publish cart notification",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("event_id", event.EventID),
		)
		return
	}

	logger.Debug("cart notification published",
		zap.String("topic", p.topic),
		zap.String("event_id", event.EventID),
	)
}
