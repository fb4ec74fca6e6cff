package notification

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Message is a rendered outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for messages without an address.
var ErrNoRecipient = errors.New("no recipient specified")

// NewMailer returns an SMTP mailer when delivery is enabled, otherwise a logging mailer.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled || strings.TrimSpace(cfg.SMTPHost) == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}

// LogMailer records messages instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a mailer for development setups.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	m.logger.Info("email delivery disabled, message logged",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
