package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageReader часть kafka.Reader, которую использует consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationHandler получает каждое разобранное уведомление корзины
type NotificationHandler func(ctx context.Context, event NotificationEvent)

// NotificationConsumer читает события cart.notification.error из Kafka
// (например, чтобы показать их витрине или положить в журнал поддержки)
type NotificationConsumer struct {
	logger *zap.Logger
	reader messageReader
	topic  string
}

// NewNotificationConsumer создаёт consumer уведомлений корзины в consumer group groupID
func NewNotificationConsumer(logger *zap.Logger, brokers []string, groupID, topic string) *NotificationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 1e6,
	})
	return newNotificationConsumer(logger, reader, topic)
}

func newNotificationConsumer(logger *zap.Logger, reader messageReader, topic string) *NotificationConsumer {
	return &NotificationConsumer{logger: logger, reader: reader, topic: topic}
}

// Close закрывает Kafka reader
func (c *NotificationConsumer) Close() error {
	return c.reader.Close()
}

// Start читает сообщения до отмены ctx
// At-least-once: offset коммитится после handler; нечитаемое сообщение логируется и пропускается
func (c *NotificationConsumer) Start(ctx context.Context, handle NotificationHandler) error {
	c.logger.Info("starting cart notification consumer", zap.String("topic", c.topic))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message from kafka", zap.Error(err))
			continue
		}

		event, err := DecodeNotificationEvent(m.Value)
		if err != nil {
			c.logger.Error("skipping malformed cart notification",
				zap.Error(err),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		} else {
			handle(ctx, event)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message offset",
				zap.Error(err),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		}
	}
}

// DecodeNotificationEvent разбирает и проверяет событие уведомления корзины
func DecodeNotificationEvent(data []byte) (NotificationEvent, error) {
	var event NotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("unmarshal cart notification: %w", err)
	}
	if event.EventType != NotificationEventType {
		return NotificationEvent{}, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	if event.EventID == "" || event.Message == "" {
		return NotificationEvent{}, fmt.Errorf("cart notification without event_id or message")
	}
	return event, nil
}
