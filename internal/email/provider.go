package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
)

var ErrNoRecipients = errors.New("email has no recipients")

// Provider delivers rendered messages.
type Provider interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// Mailer renders templates and hands the result to a Provider.
type Mailer struct {
	provider  Provider
	templates *TemplateManager
	publicURL string
}

func NewMailer(provider Provider, templates *TemplateManager, publicURL string) *Mailer {
	if templates == nil {
		templates = NewTemplateManager()
	}
	return &Mailer{
		provider:  provider,
		templates: templates,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (m *Mailer) Provider() Provider {
	return m.provider
}

// SendTemplate renders name with data and sends it to a single recipient.
// data gains an "AppURL" key with the public base URL.
func (m *Mailer) SendTemplate(ctx context.Context, to, name string, data TemplateData) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipients
	}
	if data == nil {
		data = TemplateData{}
	}
	if _, ok := data["AppURL"]; !ok {
		data["AppURL"] = m.publicURL
	}

	rendered, err := m.templates.Render(name, data)
	if err != nil {
		return err
	}
	msg := &Message{
		To:       []string{to},
		Subject:  rendered.Subject,
		TextBody: rendered.Text,
		HTMLBody: rendered.HTML,
		Template: name,
	}

	err = m.provider.Send(ctx, msg)
	metrics.RecordEmail(m.provider.Name(), name, err)
	if err != nil {
		return fmt.Errorf("send %s email: %w", name, err)
	}
	logger.CtxDebug(ctx, "Email sent", "template", name, "provider", m.provider.Name())
	return nil
}
