// Package main читает уведомления корзины из Kafka и печатает их в лог.
//
// Брокеры и топик берутся из KAFKA_BROKERS и KAFKA_TOPIC
// (по умолчанию localhost:19092 и cart.notifications).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	eventkafka "github.com/shestoi/GoBigTech/cart/internal/event/kafka"
	platformkafka "github.com/shestoi/GoBigTech/cart/platform/kafka"
	platformlogging "github.com/shestoi/GoBigTech/cart/platform/logging"
)

const groupID = "cart-notifications-tail"

func main() {
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "cart-notifications",
		Env:         "local",
		Level:       "info",
		Format:      "console",
	})
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer platformlogging.Sync(logger)

	var cfg platformkafka.Config
	if err := platformkafka.LoadEnv(&cfg); err != nil {
		logger.Error("failed to load kafka config", zap.Error(err))
		os.Exit(1)
	}
	if !cfg.Enabled() {
		cfg.Brokers = []string{"localhost:19092"}
	}

	logger.Info("kafka config loaded",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := eventkafka.NewNotificationConsumer(logger, cfg.Brokers, groupID, cfg.Topic)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	err = consumer.Start(ctx, func(ctx context.Context, event eventkafka.NotificationEvent) {
		logger.Info("cart notification",
			zap.String("event_id", event.EventID),
			zap.String("cart_key", event.CartKey),
			zap.String("occurred_at", event.OccurredAt),
			zap.String("message", event.Message),
		)
	})
	if err != nil {
		logger.Error("consumer stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
