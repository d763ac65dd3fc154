package email

import (
	"context"
	"sync"

	"eventhire_backend/internal/logger"
)

// LogProvider writes messages to the log instead of delivering them and
// keeps the most recent ones for inspection.
type LogProvider struct {
	mu   sync.Mutex
	sent []Message
	keep int
}

func NewLogProvider() *LogProvider {
	return &LogProvider{keep: 100}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	logger.CtxInfo(ctx, "Email (not delivered)",
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *msg)
	if len(p.sent) > p.keep {
		p.sent = p.sent[len(p.sent)-p.keep:]
	}
	return nil
}

// Sent returns a copy of the retained messages, oldest first.
func (p *LogProvider) Sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.sent...)
}
