package workers

import (
	"context"
	"time"

	"eventhire_backend/internal/repositories"
)

// ConversationArchiver archives closed conversations with no activity for
// the configured idle period.
type ConversationArchiver struct {
	conversations repositories.ConversationRepository
	interval      time.Duration
	idleFor       time.Duration
	now           func() time.Time
}

func NewConversationArchiver(conversations repositories.ConversationRepository, interval, idleFor time.Duration) *ConversationArchiver {
	return &ConversationArchiver{
		conversations: conversations,
		interval:      interval,
		idleFor:       idleFor,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (w *ConversationArchiver) Name() string            { return "conversation_archiver" }
func (w *ConversationArchiver) Interval() time.Duration { return w.interval }

func (w *ConversationArchiver) Run(ctx context.Context) (int64, error) {
	return w.conversations.ArchiveIdle(ctx, w.now().Add(-w.idleFor))
}
