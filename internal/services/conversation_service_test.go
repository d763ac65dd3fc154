package services

import (
	"context"
	"testing"
	"time"

	"eventhire_backend/internal/models"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startConversation(t *testing.T, env *testEnv, org, pro string) *dto.ConversationResponse {
	t.Helper()
	conv, err := env.svc.ConversationService.Start(context.Background(), org, models.UserRoleOrganizer, &dto.StartConversationRequest{
		ProfessionalID: pro,
		EventName:      "Wedding",
	})
	require.NoError(t, err)
	return conv
}

func TestConversation_StartIsIdempotentPerEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)

	first := startConversation(t, env, org, pro)
	assert.True(t, first.Created)
	assert.Equal(t, models.ConversationStatusActive, first.Status)

	again, err := env.svc.ConversationService.Start(ctx, org, models.UserRoleOrganizer, &dto.StartConversationRequest{
		ProfessionalID: pro,
		EventName:      "  Wedding ",
	})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.ID, again.ID)

	other, err := env.svc.ConversationService.Start(ctx, org, models.UserRoleOrganizer, &dto.StartConversationRequest{
		ProfessionalID: pro,
		EventName:      "Birthday",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = env.svc.ConversationService.Start(ctx, pro, models.UserRoleProfessional, &dto.StartConversationRequest{ProfessionalID: org, EventName: "x"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)

	_, err = env.svc.ConversationService.Start(ctx, org, models.UserRoleOrganizer, &dto.StartConversationRequest{ProfessionalID: pro, EventName: " \t "})
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestConversation_UnreadAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	conv := startConversation(t, env, org, pro)

	for _, text := range []string{"Hello", "Are you free on June 5?"} {
		_, err := env.svc.ConversationService.SendMessage(ctx, conv.ID, org, models.UserRoleOrganizer, &dto.SendMessageRequest{Content: text})
		require.NoError(t, err)
	}
	_, err := env.svc.ConversationService.SendMessage(ctx, conv.ID, pro, models.UserRoleProfessional, &dto.SendMessageRequest{Content: "Yes!"})
	require.NoError(t, err)

	counts, err := env.svc.ConversationService.UnreadCounts(ctx, pro, models.UserRoleProfessional)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Total)
	assert.Equal(t, int64(2), counts.Conversations[conv.ID])

	got, err := env.svc.ConversationService.Get(ctx, conv.ID, org)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UnreadCount)

	marked, err := env.svc.ConversationService.MarkRead(ctx, conv.ID, pro)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked.Marked)
	assert.Contains(t, env.notifier.kinds(), NotifyConversationRead)

	marked, err = env.svc.ConversationService.MarkRead(ctx, conv.ID, pro)
	require.NoError(t, err)
	assert.Zero(t, marked.Marked)

	counts, err = env.svc.ConversationService.UnreadCounts(ctx, pro, models.UserRoleProfessional)
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
}

func TestConversation_SystemMessagesAreNotUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	env.createRequest(t, org, pro)

	counts, err := env.svc.ConversationService.UnreadCounts(ctx, pro, models.UserRoleProfessional)
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
}

func TestConversation_PollingCursor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	conv := startConversation(t, env, org, pro)

	impl := env.svc.ConversationService.(*conversationService)
	base := time.Now().UTC().Truncate(time.Microsecond)
	tick := 0
	impl.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, text := range []string{"one", "two", "three"} {
		_, err := env.svc.ConversationService.SendMessage(ctx, conv.ID, org, models.UserRoleOrganizer, &dto.SendMessageRequest{Content: text})
		require.NoError(t, err)
	}

	page, err := env.svc.ConversationService.ListMessages(ctx, conv.ID, pro, &dto.MessageListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "one", page.Messages[0].Content)
	require.NotNil(t, page.NextAfter)

	rest, err := env.svc.ConversationService.ListMessages(ctx, conv.ID, pro, &dto.MessageListQuery{
		After:   page.NextAfter.Format(time.RFC3339Nano),
		AfterID: page.NextAfterID,
	})
	require.NoError(t, err)
	require.Len(t, rest.Messages, 1)
	assert.Equal(t, "three", rest.Messages[0].Content)

	_, err = env.svc.ConversationService.ListMessages(ctx, conv.ID, pro, &dto.MessageListQuery{After: "yesterday"})
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestConversation_StatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	outsider := env.register(t, "other@example.com", models.UserRoleOrganizer)
	conv := startConversation(t, env, org, pro)

	_, err := env.svc.ConversationService.Close(ctx, conv.ID, outsider)
	assert.ErrorIs(t, err, apperrors.ErrConversationAccessDenied)

	closed, err := env.svc.ConversationService.Close(ctx, conv.ID, pro)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusClosed, closed.Status)

	_, err = env.svc.ConversationService.SendMessage(ctx, conv.ID, org, models.UserRoleOrganizer, &dto.SendMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrConversationNotActive)

	archived, err := env.svc.ConversationService.Archive(ctx, conv.ID, org)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusArchived, archived.Status)

	_, err = env.svc.ConversationService.Close(ctx, conv.ID, org)
	assertCode(t, err, apperrors.CodeInvalidStatus)

	reopened, err := env.svc.ConversationService.Reopen(ctx, conv.ID, org)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusActive, reopened.Status)
}

func TestConversation_RequestReactivatesClosedConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)

	sr := env.createRequest(t, org, pro)
	_, err := env.svc.ConversationService.Close(ctx, sr.ConversationID, org)
	require.NoError(t, err)

	again := env.createRequest(t, org, pro)
	assert.Equal(t, sr.ConversationID, again.ConversationID)

	conv, err := env.svc.ConversationService.Get(ctx, sr.ConversationID, org)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusActive, conv.Status)
}

func TestConversation_ListShowsCounterpart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	conv := startConversation(t, env, org, pro)
	_, err := env.svc.ConversationService.SendMessage(ctx, conv.ID, pro, models.UserRoleProfessional, &dto.SendMessageRequest{Content: "Hi there"})
	require.NoError(t, err)

	page, err := env.svc.ConversationService.List(ctx, org, models.UserRoleOrganizer, &dto.ConversationListQuery{})
	require.NoError(t, err)
	items, ok := page.Data.([]*dto.ConversationResponse)
	require.True(t, ok)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Counterpart)
	assert.Equal(t, pro, items[0].Counterpart.UserID)
	require.NotNil(t, items[0].LastMessage)
	assert.Equal(t, "Hi there", items[0].LastMessage.Content)
	assert.Equal(t, int64(1), items[0].UnreadCount)
}

func TestConversation_LateMessageKeepsClosedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	started := startConversation(t, env, org, pro)

	loaded, err := env.store.Conversations.FindByID(ctx, started.ID)
	require.NoError(t, err)

	_, err = env.svc.ConversationService.Close(ctx, started.ID, pro)
	require.NoError(t, err)

	at := time.Now().UTC()
	_, err = appendMessage(ctx, env.store.Conversations, loaded, "", models.SenderSystem, "Reminder", at)
	require.NoError(t, err)

	got, err := env.store.Conversations.FindByID(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusClosed, got.Status)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(at))
}
