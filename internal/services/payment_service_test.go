package services

import (
	"context"
	"testing"

	"eventhire_backend/internal/events"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/payments"
	"eventhire_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_DepositIntentIsReused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accepted, org, pro := env.acceptedRequest(t, 100000)

	_, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, pro)
	assert.ErrorIs(t, err, apperrors.ErrServiceRequestAccessDenied)

	first, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), first.Amount)
	assert.Equal(t, int64(2500), first.PlatformFee)
	assert.Equal(t, int64(22500), first.ProfessionalAmount)
	assert.Equal(t, "mock", first.Provider)
	assert.NotEmpty(t, first.ClientSecret)

	second, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	sr, err := env.svc.ServiceRequestService.Get(ctx, accepted.ID, org, models.UserRoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, sr.PaymentStatus)

	list, err := env.svc.PaymentService.ListForRequest(ctx, accepted.ID, pro, models.UserRoleProfessional)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].ClientSecret, "only the organizer sees the client secret")
}

func TestPayment_PendingRequestCannotBePaid(t *testing.T) {
	env := newTestEnv(t)
	org, pro := env.pair(t)
	sr := env.createRequest(t, org, pro)

	_, err := env.svc.PaymentService.CreateDepositIntent(context.Background(), sr.ID, org)
	assertCode(t, err, apperrors.CodeInvalidStatus)
}

func TestPayment_WebhookSuccessIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accepted, org, pro := env.acceptedRequest(t, 100000)

	payment, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	require.NoError(t, err)
	require.NoError(t, env.gateway.Succeed(payment.ProviderIntentID))

	body, sig := env.gateway.SignedWebhook("evt_1", payments.EventIntentSucceeded, payment.ProviderIntentID, "")

	_, err = env.svc.PaymentService.HandleWebhook(ctx, body, "bad")
	assert.ErrorIs(t, err, apperrors.ErrInvalidWebhookSignature)

	resp, err := env.svc.PaymentService.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, "evt_1", resp.EventID)

	resp, err = env.svc.PaymentService.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.False(t, resp.Applied, "redelivered event is a no-op")

	sr, err := env.svc.ServiceRequestService.Get(ctx, accepted.ID, pro, models.UserRoleProfessional)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPaid, sr.Status)
	assert.Equal(t, models.PaymentStatusPaid, sr.PaymentStatus)

	paidEvents := 0
	for _, tp := range env.publisher.types() {
		if tp == events.ServiceRequestPaid {
			paidEvents++
		}
	}
	assert.Equal(t, 1, paidEvents)

	_, err = env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPaid)

	completed, err := env.svc.ServiceRequestService.Complete(ctx, accepted.ID, org, models.UserRoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
}

func TestPayment_FailedThenRetried(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accepted, org, _ := env.acceptedRequest(t, 80000)

	payment, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	require.NoError(t, err)

	body, sig := env.gateway.SignedWebhook("evt_fail", payments.EventIntentFailed, payment.ProviderIntentID, "card_declined")
	resp, err := env.svc.PaymentService.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.True(t, resp.Applied)

	sr, err := env.svc.ServiceRequestService.Get(ctx, accepted.ID, org, models.UserRoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, sr.Status)
	assert.Equal(t, models.PaymentStatusFailed, sr.PaymentStatus)

	ev, ok := env.publisher.last(events.PaymentFailed)
	require.True(t, ok)
	var payload events.PaymentPayload
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "card_declined", payload.Reason)

	retry, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	require.NoError(t, err)
	assert.NotEqual(t, payment.ID, retry.ID)

	require.NoError(t, env.gateway.Succeed(retry.ProviderIntentID))
	confirmed, err := env.svc.PaymentService.Confirm(ctx, retry.ID, org)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusSucceeded, confirmed.Status)
	assert.NotNil(t, confirmed.PaidAt)
}

func TestPayment_CancelResetsToUnpaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accepted, org, _ := env.acceptedRequest(t, 50000)

	payment, err := env.svc.PaymentService.CreateDepositIntent(ctx, accepted.ID, org)
	require.NoError(t, err)

	body, sig := env.gateway.SignedWebhook("evt_cancel", payments.EventIntentCanceled, payment.ProviderIntentID, "")
	_, err = env.svc.PaymentService.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	sr, err := env.svc.ServiceRequestService.Get(ctx, accepted.ID, org, models.UserRoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, sr.PaymentStatus)
}

func TestPayment_WebhookForUnknownIntentIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	body, sig := env.gateway.SignedWebhook("evt_x", payments.EventIntentSucceeded, "pi_unknown", "")

	resp, err := env.svc.PaymentService.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.False(t, resp.Applied)
}
