package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/service"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

// LogNotifier пишет сообщение для покупателя в лог (аналог toast в консоли)
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier создаёт notifier поверх zap
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// ReportError реализует service.Notifier
func (n *LogNotifier) ReportError(ctx context.Context, message string) {
	platformobservability.L(ctx, n.logger).Warn("cart notification", zap.String("message", message))
}

// Multi рассылает каждое сообщение во все вложенные notifier-ы по порядку
type Multi []service.Notifier

// NewMulti собирает fan-out notifier, nil элементы пропускаются
func NewMulti(notifiers ...service.Notifier) Multi {
	m := make(Multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

// ReportError реализует service.Notifier
func (m Multi) ReportError(ctx context.Context, message string) {
	for _, n := range m {
		n.ReportError(ctx, message)
	}
}
