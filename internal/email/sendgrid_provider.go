package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhire_backend/internal/breaker"
	"eventhire_backend/internal/metrics"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker/v2"
)

// SendGridProvider delivers through the SendGrid v3 API behind a circuit
// breaker.
type SendGridProvider struct {
	client *sendgrid.Client
	from   Address
	cb     *gobreaker.CircuitBreaker[*rest.Response]
}

func NewSendGridProvider(apiKey string, from Address) (*SendGridProvider, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &SendGridProvider{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
		cb:     breaker.New[*rest.Response](breaker.DefaultConfig("sendgrid")),
	}, nil
}

func (p *SendGridProvider) Name() string { return "sendgrid" }

func (p *SendGridProvider) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	from := mail.NewEmail(p.from.Name, p.from.Email)
	personalization := mail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject
	m.AddPersonalizations(personalization)
	if msg.TextBody != "" {
		m.AddContent(mail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTMLBody))
	}

	start := time.Now()
	resp, err := p.cb.Execute(func() (*rest.Response, error) {
		resp, err := p.client.SendWithContext(ctx, m)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("sendgrid status %d", resp.StatusCode)
		}
		return resp, nil
	})
	metrics.RecordGatewayCall("sendgrid", "send", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
