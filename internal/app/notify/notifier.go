// Package notify formats pipeline results and delivers them to the
// requester over Telegram, NATS or the log.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers one text message to a recipient. Implementations return
// errors classified as transient or permanent provider failures.
type Notifier interface {
	Send(ctx context.Context, recipient, text string) error
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, recipient, text string) error {
	n.logger.Info("notification", zap.String("recipient", recipient), zap.String("text", text))
	return nil
}
