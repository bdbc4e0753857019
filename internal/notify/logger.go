package notify

import (
	"context"
	"log/slog"
)

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Used when no bot token is configured and in tests.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// SendToRenter writes the message to the structured logger.
func (n *LoggerNotifier) SendToRenter(_ context.Context, renterID string, text string) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "renter_id", renterID, "text", text)
	return nil
}

// EditMessage logs the edit instead of delivering it.
func (n *LoggerNotifier) EditMessage(_ context.Context, ref MessageRef, text string) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification edit", "chat_id", ref.ChatID, "message_id", ref.MessageID, "text", text)
	return nil
}
