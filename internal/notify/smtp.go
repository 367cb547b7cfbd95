package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"storefront-api/internal/config"
)

const (
	defaultSMTPPort = 587
	smtpTimeout     = 15 * time.Second
)

// SMTPNotifier sends plain-text mail, upgrading with STARTTLS when the server offers it.
type SMTPNotifier struct {
	client *mail.Client
	from   string
}

func NewSMTPNotifier(cfg config.MailConfig) (*SMTPNotifier, error) {
	host := strings.TrimSpace(cfg.Server)
	if host == "" {
		return nil, errors.New("MAIL_SERVER is required for smtp notifications")
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultSMTPPort
	}

	from := strings.TrimSpace(cfg.DefaultSender)
	if from == "" {
		from = strings.TrimSpace(cfg.Username)
	}
	if from == "" {
		return nil, errors.New("MAIL_DEFAULT_SENDER or MAIL_USERNAME is required for smtp notifications")
	}
	if err := mail.NewMsg().From(from); err != nil {
		return nil, fmt.Errorf("invalid mail sender %q: %w", from, err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(smtpTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}

	return &SMTPNotifier{client: client, from: from}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(n.from, msg)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) Close() error {
	return nil
}

// buildMessage rejects malformed addresses; the subject is header-encoded by go-mail.
func buildMessage(from string, msg Message) (*mail.Msg, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, errors.New("recipient is required")
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	return m, nil
}
