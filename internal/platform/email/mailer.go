// Package email provides the outbound email implementation backed by the
// Resend delivery API.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/taskforge/taskforge-api/internal/config"
	"github.com/taskforge/taskforge-api/internal/redact"
)

// Mailer sends transactional email through Resend. It implements the
// service.EmailSender interface.
type Mailer struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewMailer creates a Mailer from configuration.
// If logger is nil, a default logger will be used.
func NewMailer(cfg config.EmailConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Mailer{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.FromAddress,
		logger: logger.With(slog.String("component", "mailer")),
	}
}

// Send delivers a plain-text email to a single recipient.
// Failures propagate to the caller; there is no retry at this layer.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		m.logger.Error("failed to send email",
			slog.String("error", redact.Error(err)),
			slog.String("subject", subject))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("email_id", sent.Id),
		slog.String("subject", subject))
	return nil
}
