// Package mailer delivers transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrDelivery wraps every transport failure so callers can map it to a 500.
var ErrDelivery = errors.New("email delivery failed")

// Message is a single outbound email.
type Message struct {
	To        string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendgridSender posts messages to the SendGrid v3 mail API.
type SendgridSender struct {
	client sendgridClient
	from   *mail.Email
	logg   *logger.Logger
}

// New returns a SendGrid sender when an API key is configured, otherwise a
// LogSender that only records the message.
func New(cfg config.SendgridConfig, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &LogSender{logg: logg}
	}
	return newSendgridSender(sendgrid.NewSendClient(cfg.APIKey), cfg, logg)
}

func newSendgridSender(client sendgridClient, cfg config.SendgridConfig, logg *logger.Logger) *SendgridSender {
	return &SendgridSender{
		client: client,
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		logg:   logg,
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrDelivery)
	}
	to := mail.NewEmail(msg.ToName, msg.To)
	payload := mail.NewSingleEmail(s.from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if resp == nil || resp.StatusCode >= http.StatusMultipleChoices {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("%w: sendgrid status %d", ErrDelivery, status)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"to": logger.MaskEmail(msg.To), "subject": msg.Subject}), "email sent")
	}
	return nil
}

// LogSender records the recipient and subject instead of sending. Bodies may
// carry reset links and are never logged.
type LogSender struct {
	logg *logger.Logger
}

func (l *LogSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrDelivery)
	}
	if l.logg != nil {
		l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
			"to":      logger.MaskEmail(msg.To),
			"subject": msg.Subject,
		}), "sendgrid not configured; email dropped")
	}
	return nil
}
