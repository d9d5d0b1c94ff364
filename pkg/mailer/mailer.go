package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/edusetu/tuition-admin-api/pkg/config"
)

// Message is a plain-text email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// Mailer delivers messages to a single recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the mailer implementation from configuration. Anything other
// than "sendgrid" falls back to console logging, which is what development
// environments run.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Provider == "sendgrid" && cfg.APIKey != "" {
		return &SendgridMailer{cfg: cfg}
	}
	return &ConsoleMailer{logger: logger}
}

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	cfg config.MailConfig
}

// Send submits the message to SendGrid.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(m.cfg.FromName, m.cfg.FromAddress)
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	mail := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	client := sendgrid.NewSendClient(m.cfg.APIKey)
	resp, err := client.SendWithContext(ctx, mail)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of delivering them.
type ConsoleMailer struct {
	logger *zap.Logger
}

// Send writes the message to the log.
func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	if m.logger != nil {
		m.logger.Info("email (console delivery)",
			zap.String("to", msg.ToAddress),
			zap.String("subject", msg.Subject),
			zap.String("body", msg.Body),
		)
	}
	return nil
}
