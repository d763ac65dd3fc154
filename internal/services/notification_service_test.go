package services

import (
	"context"
	"strings"
	"testing"

	"eventhire_backend/internal/email"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_MessageSentEmailsRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	conv := startConversation(t, env, org, pro)

	_, err := env.svc.ConversationService.SendMessage(ctx, conv.ID, org, models.UserRoleOrganizer, &dto.SendMessageRequest{
		Content: strings.Repeat("a", 250),
	})
	require.NoError(t, err)
	ev, ok := env.publisher.last(events.MessageSent)
	require.True(t, ok)

	provider := email.NewLogProvider()
	notifications := NewNotificationService(env.store, email.NewMailer(provider, nil, "https://eventhire.test"))
	require.NoError(t, notifications.Handle(ctx, ev))

	sent := provider.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"pro@example.com"}, sent[0].To)
	assert.Equal(t, email.TemplateNewMessage, sent[0].Template)
	assert.Contains(t, sent[0].Subject, "Wedding")
	assert.Contains(t, sent[0].TextBody, "/conversations/"+conv.ID)
	assert.NotContains(t, sent[0].TextBody, strings.Repeat("a", 201), "long messages are cut to a preview")
}

func TestNotification_SystemMessagesAreNotMailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	conv := startConversation(t, env, org, pro)

	ev, err := events.New(events.MessageSent, events.MessagePayload{
		ConversationID: conv.ID,
		SenderType:     string(models.SenderSystem),
		RecipientIDs:   []string{org, pro},
		Content:        "Request accepted",
	})
	require.NoError(t, err)

	provider := email.NewLogProvider()
	notifications := NewNotificationService(env.store, email.NewMailer(provider, nil, ""))
	require.NoError(t, notifications.Handle(ctx, ev))
	assert.Empty(t, provider.Sent())
}
