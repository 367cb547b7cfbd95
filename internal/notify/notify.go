package notify

import (
	"context"
	"fmt"

	"storefront-api/internal/config"
	"storefront-api/internal/observability"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers a message. Callers treat delivery as best-effort.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// New builds the notifier selected by NOTIFY_DRIVER.
func New(notifyCfg config.NotifyConfig, mailCfg config.MailConfig, logger *observability.Logger) (Notifier, error) {
	switch notifyCfg.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "smtp":
		return NewSMTPNotifier(mailCfg)
	case "kafka":
		return NewKafkaNotifier(notifyCfg.KafkaBrokers, notifyCfg.KafkaTopic)
	default:
		return nil, fmt.Errorf("unsupported notify driver %q", notifyCfg.Driver)
	}
}
