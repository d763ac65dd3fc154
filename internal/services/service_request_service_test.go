package services

import (
	"context"
	"testing"
	"time"

	"eventhire_backend/internal/events"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestServiceRequest_CreateOpensConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)

	sr := env.createRequest(t, org, pro)
	assert.Equal(t, models.RequestStatusPending, sr.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, sr.PaymentStatus)
	assert.Equal(t, "usd", sr.Currency)
	require.NotEmpty(t, sr.ConversationID)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), sr.ExpiresAt, time.Minute)

	msgs, err := env.svc.ConversationService.ListMessages(ctx, sr.ConversationID, pro, &dto.MessageListQuery{})
	require.NoError(t, err)
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, models.SenderSystem, msgs.Messages[0].SenderType)

	assert.Contains(t, env.publisher.types(), events.ServiceRequestCreated)
	assert.Contains(t, env.notifier.kinds(), NotifyMessageNew)
}

func TestServiceRequest_ExpiryCappedByEventDate(t *testing.T) {
	env := newTestEnv(t)
	org, pro := env.pair(t)
	eventDate := time.Now().Add(24 * time.Hour).UTC()

	sr, err := env.svc.ServiceRequestService.Create(context.Background(), org, models.UserRoleOrganizer, &dto.CreateServiceRequest{
		ProfessionalID: pro,
		EventName:      "Tomorrow",
		EventDate:      eventDate,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, eventDate, sr.ExpiresAt, time.Second)
}

func TestServiceRequest_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)

	_, err := env.svc.ServiceRequestService.Create(ctx, pro, models.UserRoleProfessional, &dto.CreateServiceRequest{
		ProfessionalID: org, EventName: "x", EventDate: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)

	_, err = env.svc.ServiceRequestService.Create(ctx, org, models.UserRoleOrganizer, &dto.CreateServiceRequest{
		ProfessionalID: pro, EventName: "past", EventDate: time.Now().Add(-time.Hour),
	})
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.svc.ServiceRequestService.Create(ctx, org, models.UserRoleOrganizer, &dto.CreateServiceRequest{
		ProfessionalID: pro, EventName: "deposit", EventDate: time.Now().Add(time.Hour),
		TotalAmount: 100, DepositAmount: 200,
	})
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = env.svc.ServiceRequestService.Create(ctx, org, models.UserRoleOrganizer, &dto.CreateServiceRequest{
		ProfessionalID: org, EventName: "not a pro", EventDate: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, apperrors.ErrProfessionalUnavailable)

	_, err = env.svc.ServiceRequestService.Create(ctx, org, models.UserRoleOrganizer, &dto.CreateServiceRequest{
		ProfessionalID: pro, EventName: "   ", EventDate: time.Now().Add(time.Hour),
	})
	assertCode(t, err, apperrors.CodeValidationFailed)

	list, err := env.svc.ServiceRequestService.List(ctx, org, models.UserRoleOrganizer, &dto.ServiceRequestListQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.Total, "rejected requests leave nothing behind")
}

func TestServiceRequest_AcceptComputesDeposit(t *testing.T) {
	env := newTestEnv(t)
	accepted, _, _ := env.acceptedRequest(t, 100000)

	assert.Equal(t, models.RequestStatusAccepted, accepted.Status)
	assert.Equal(t, int64(100000), accepted.TotalAmount)
	assert.Equal(t, int64(25000), accepted.DepositAmount)
	assert.NotNil(t, accepted.RespondedAt)
	assert.Contains(t, env.publisher.types(), events.ServiceRequestAccepted)
}

func TestServiceRequest_AcceptRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	sr := env.createRequest(t, org, pro)

	_, err := env.svc.ServiceRequestService.Accept(ctx, sr.ID, org, &dto.AcceptServiceRequest{})
	assert.ErrorIs(t, err, apperrors.ErrServiceRequestAccessDenied)

	_, err = env.svc.ServiceRequestService.Accept(ctx, sr.ID, pro, &dto.AcceptServiceRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount, "no total quoted anywhere")

	total, deposit := int64(1000), int64(2000)
	_, err = env.svc.ServiceRequestService.Accept(ctx, sr.ID, pro, &dto.AcceptServiceRequest{TotalAmount: &total, DepositAmount: &deposit})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount)

	deposit = 300
	_, err = env.svc.ServiceRequestService.Accept(ctx, sr.ID, pro, &dto.AcceptServiceRequest{TotalAmount: &total, DepositAmount: &deposit})
	require.NoError(t, err)

	_, err = env.svc.ServiceRequestService.Decline(ctx, sr.ID, pro, &dto.DeclineServiceRequest{})
	assertCode(t, err, apperrors.CodeInvalidStatus)
}

func TestServiceRequest_Decline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	sr := env.createRequest(t, org, pro)

	declined, err := env.svc.ServiceRequestService.Decline(ctx, sr.ID, pro, &dto.DeclineServiceRequest{Reason: "  Booked that day "})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusDeclined, declined.Status)
	assert.Equal(t, "Booked that day", declined.DeclineReason)

	ev, ok := env.publisher.last(events.ServiceRequestDeclined)
	require.True(t, ok)
	var payload events.ServiceRequestPayload
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "Booked that day", payload.Reason)
}

func TestServiceRequest_ExpireOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	sr := env.createRequest(t, org, pro)

	n, err := env.svc.ServiceRequestService.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	impl := env.svc.ServiceRequestService.(*serviceRequestService)
	impl.now = func() time.Time { return time.Now().UTC().Add(73 * time.Hour) }

	n, err = env.svc.ServiceRequestService.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := env.svc.ServiceRequestService.Get(ctx, sr.ID, org, models.UserRoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusExpired, got.Status)
	assert.Contains(t, env.publisher.types(), events.ServiceRequestExpired)

	total := int64(1000)
	_, err = env.svc.ServiceRequestService.Accept(ctx, sr.ID, pro, &dto.AcceptServiceRequest{TotalAmount: &total})
	assertCode(t, err, apperrors.CodeInvalidStatus)
}

func TestServiceRequest_AcceptAfterDeadlineRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	sr := env.createRequest(t, org, pro)

	impl := env.svc.ServiceRequestService.(*serviceRequestService)
	impl.now = func() time.Time { return time.Now().UTC().Add(80 * time.Hour) }

	total := int64(1000)
	_, err := env.svc.ServiceRequestService.Accept(ctx, sr.ID, pro, &dto.AcceptServiceRequest{TotalAmount: &total})
	assert.ErrorIs(t, err, apperrors.ErrServiceRequestExpired)
}

func TestServiceRequest_AccessAndListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	outsider := env.register(t, "other@example.com", models.UserRoleOrganizer)
	sr := env.createRequest(t, org, pro)

	_, err := env.svc.ServiceRequestService.Get(ctx, sr.ID, outsider, models.UserRoleOrganizer)
	assert.ErrorIs(t, err, apperrors.ErrServiceRequestAccessDenied)
	_, err = env.svc.ServiceRequestService.Get(ctx, sr.ID, outsider, models.UserRoleAdmin)
	assert.NoError(t, err)

	page, err := env.svc.ServiceRequestService.List(ctx, pro, models.UserRoleProfessional, &dto.ServiceRequestListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = env.svc.ServiceRequestService.List(ctx, outsider, models.UserRoleOrganizer, &dto.ServiceRequestListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestServiceRequest_CompleteRequiresPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accepted, org, _ := env.acceptedRequest(t, 40000)

	_, err := env.svc.ServiceRequestService.Complete(ctx, accepted.ID, org, models.UserRoleOrganizer)
	assertCode(t, err, apperrors.CodeInvalidStatus)
}
