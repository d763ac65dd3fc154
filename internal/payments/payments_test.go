package payments

import (
	"context"
	"testing"

	"eventhire_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestMockGateway_Lifecycle(t *testing.T) {
	g := NewMockGateway("")
	ctx := context.Background()

	in, err := g.CreateIntent(ctx, CreateIntentParams{Amount: 2500, Currency: "usd", Metadata: map[string]string{"service_request_id": "r1"}})
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusRequiresPayment, in.Status)
	assert.NotEmpty(t, in.ClientSecret)
	assert.Equal(t, "r1", in.Metadata["service_request_id"])

	require.NoError(t, g.Succeed(in.ID))
	got, err := g.GetIntent(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusSucceeded, got.Status)

	_, err = g.GetIntent(ctx, "pi_missing")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestMockGateway_RejectsNonPositiveAmount(t *testing.T) {
	_, err := NewMockGateway("").CreateIntent(context.Background(), CreateIntentParams{Amount: 0, Currency: "usd"})
	assert.Error(t, err)
}

func TestMockGateway_WebhookSignature(t *testing.T) {
	g := NewMockGateway("whsec_test")
	in, err := g.CreateIntent(context.Background(), CreateIntentParams{Amount: 100, Currency: "usd"})
	require.NoError(t, err)

	payload, sig := g.SignedWebhook("evt_1", EventIntentFailed, in.ID, "card_declined")

	_, err = g.ParseWebhook(payload, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	ev, err := g.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	require.NotNil(t, ev.Intent)
	assert.Equal(t, models.IntentStatusFailed, ev.Intent.Status)
	assert.Equal(t, "card_declined", ev.Intent.FailureReason)
}

func TestMockGateway_MalformedWebhook(t *testing.T) {
	_, err := NewMockGateway("").ParseWebhook([]byte("{"), "")
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestMapStripeStatus(t *testing.T) {
	cases := map[stripe.PaymentIntentStatus]models.PaymentIntentStatus{
		stripe.PaymentIntentStatusSucceeded:             models.IntentStatusSucceeded,
		stripe.PaymentIntentStatusCanceled:              models.IntentStatusCanceled,
		stripe.PaymentIntentStatusProcessing:            models.IntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresPaymentMethod: models.IntentStatusRequiresPayment,
		stripe.PaymentIntentStatusRequiresAction:        models.IntentStatusRequiresPayment,
	}
	for in, want := range cases {
		assert.Equal(t, want, mapStripeStatus(in), string(in))
	}
}

func TestFromStripe_FailureReason(t *testing.T) {
	in := fromStripe(&stripe.PaymentIntent{
		ID:               "pi_1",
		Amount:           500,
		Currency:         stripe.CurrencyUSD,
		Status:           stripe.PaymentIntentStatusRequiresPaymentMethod,
		LastPaymentError: &stripe.Error{Msg: "Your card was declined."},
	})
	assert.Equal(t, "usd", in.Currency)
	assert.Equal(t, models.IntentStatusFailed, in.Status)
	assert.Equal(t, "Your card was declined.", in.FailureReason)
}

func TestStripeGateway_WebhookRequiresSecret(t *testing.T) {
	g, err := NewStripeGateway("sk_test_x", "")
	require.NoError(t, err)
	_, err = g.ParseWebhook([]byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeGateway_WebhookBadSignature(t *testing.T) {
	g, err := NewStripeGateway("sk_test_x", "whsec_123")
	require.NoError(t, err)
	_, err = g.ParseWebhook([]byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
