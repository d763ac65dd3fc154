package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventhire_backend/internal/breaker"
	"eventhire_backend/internal/metrics"
	"eventhire_backend/internal/models"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway creates and reads PaymentIntents through the Stripe API.
// Calls go through a circuit breaker that ignores client errors.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	cb            *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(secretKey, nil)

	cfg := breaker.DefaultConfig("stripe")
	cfg.IsSuccessful = func(err error) bool {
		if err == nil {
			return true
		}
		var serr *stripe.Error
		return errors.As(err, &serr) && serr.HTTPStatusCode > 0 && serr.HTTPStatusCode < 500
	}
	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
		cb:            breaker.New[*stripe.PaymentIntent](cfg),
	}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) call(op string, fn func() (*stripe.PaymentIntent, error)) (*Intent, error) {
	start := time.Now()
	pi, err := g.cb.Execute(fn)
	metrics.RecordGatewayCall("stripe", op, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		var serr *stripe.Error
		if errors.As(err, &serr) {
			if serr.Code == stripe.ErrorCodeResourceMissing {
				return nil, ErrIntentNotFound
			}
			if serr.HTTPStatusCode >= 500 || serr.HTTPStatusCode == 0 {
				return nil, fmt.Errorf("%w: %s", ErrUnavailable, serr.Msg)
			}
			return nil, fmt.Errorf("stripe %s: %s", op, serr.Msg)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return g.call("create_intent", func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.New(params)
	})
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return g.call("get_intent", func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.Get(id, params)
	})
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out, nil
	}
	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled, EventIntentProcessing:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.Intent = fromStripe(&pi)
	}
	return out, nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       mapStripeStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		in.FailureReason = pi.LastPaymentError.Msg
		if in.Status == models.IntentStatusRequiresPayment {
			in.Status = models.IntentStatusFailed
		}
	}
	if in.Status == models.IntentStatusCanceled && pi.CancellationReason != "" {
		in.FailureReason = string(pi.CancellationReason)
	}
	return in
}

func mapStripeStatus(s stripe.PaymentIntentStatus) models.PaymentIntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return models.IntentStatusCanceled
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return models.IntentStatusProcessing
	default:
		return models.IntentStatusRequiresPayment
	}
}
