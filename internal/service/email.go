package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"camrent-web/internal/logger"
)

type sendGridNotifier struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewNotifier returns a SendGrid notifier, or one that only logs when no API
// key is configured.
func NewNotifier(apiKey, fromEmail, fromName string) Notifier {
	if apiKey == "" {
		return logNotifier{}
	}
	return &sendGridNotifier{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridNotifier) Notify(ctx context.Context, to, subject, body string) error {
	logger.ExternalServiceCall("sendgrid", "Notify", "to", to, "subject", subject)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	htmlBody := "<pre>" + html.EscapeString(body) + "</pre>"
	message := mail.NewSingleEmail(from, subject, recipient, body, htmlBody)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
		logger.ExternalServiceResult("sendgrid", "Notify", err)
		return err
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "Notify", err)
		return err
	}

	logger.ExternalServiceResult("sendgrid", "Notify", nil, "status", response.StatusCode)
	return nil
}

type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, to, subject, body string) error {
	logger.Info("Notification (mail delivery not configured)",
		"to", to, "subject", subject, "lines", strings.Count(body, "\n")+1)
	return nil
}
