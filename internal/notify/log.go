package notify

import (
	"context"

	"storefront-api/internal/observability"
)

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger *observability.Logger
}

func NewLogNotifier(logger *observability.Logger) *LogNotifier {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"bytes":   len(msg.Body),
	})
	return nil
}

func (n *LogNotifier) Close() error {
	return nil
}
