// Package payments talks to the payment provider that holds deposit
// intents.
package payments

import (
	"context"
	"errors"

	"eventhire_backend/internal/models"
)

var (
	ErrIntentNotFound   = errors.New("payment intent not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnavailable      = errors.New("payment provider unavailable")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// Webhook event types acted upon.
const (
	EventIntentSucceeded  = "payment_intent.succeeded"
	EventIntentFailed     = "payment_intent.payment_failed"
	EventIntentCanceled   = "payment_intent.canceled"
	EventIntentProcessing = "payment_intent.processing"
)

type Intent struct {
	ID            string
	ClientSecret  string
	Amount        int64
	Currency      string
	Status        models.PaymentIntentStatus
	FailureReason string
	Metadata      map[string]string
}

type CreateIntentParams struct {
	Amount         int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// WebhookEvent is a verified provider notification. Intent is nil for
// event types that do not carry a payment intent.
type WebhookEvent struct {
	ID     string
	Type   string
	Intent *Intent
}

type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// ParseWebhook verifies the signature and decodes the payload.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
