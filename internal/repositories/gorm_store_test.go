package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"eventhire_backend/database"
	"eventhire_backend/internal/config"
	"eventhire_backend/internal/models"
	"eventhire_backend/pkg/contextkeys"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newGormStore connects to TEST_DATABASE_URL and binds every call made with
// the returned ctx to a transaction that is rolled back after the test.
func newGormStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Database.DSN = dsn
	cfg.Database.MaxOpenConns = 2
	cfg.Database.MaxIdleConns = 1

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	tx := db.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db), context.WithValue(context.Background(), contextkeys.DBContextKey, tx)
}

// savepoint runs fn in a nested transaction so a failed statement does not
// abort the test transaction.
func savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := ctx.Value(contextkeys.DBContextKey).(*gorm.DB)
	return tx.Transaction(func(inner *gorm.DB) error {
		return fn(context.WithValue(ctx, contextkeys.DBContextKey, inner))
	})
}

func TestGormUsers_DuplicateEmail(t *testing.T) {
	store, ctx := newGormStore(t)
	email := "dup-" + uuid.NewString() + "@example.com"

	require.NoError(t, store.Users.Create(ctx, &models.User{Email: email, PasswordHash: "x", Role: models.UserRoleOrganizer}))

	err := savepoint(ctx, func(ctx context.Context) error {
		return store.Users.Create(ctx, &models.User{Email: email, PasswordHash: "y", Role: models.UserRoleProfessional})
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestGormConversations_DuplicateTriple(t *testing.T) {
	store, ctx := newGormStore(t)
	org, pro := uuid.NewString(), uuid.NewString()

	first := &models.Conversation{OrganizerID: org, ProfessionalID: pro, EventName: "Gala", Status: models.ConversationStatusActive}
	require.NoError(t, store.Conversations.Create(ctx, first))

	err := savepoint(ctx, func(ctx context.Context) error {
		return store.Conversations.Create(ctx, &models.Conversation{OrganizerID: org, ProfessionalID: pro, EventName: "Gala", Status: models.ConversationStatusActive})
	})
	assert.ErrorIs(t, err, ErrConversationExists)
}

func TestGormConversations_ColumnUpdates(t *testing.T) {
	store, ctx := newGormStore(t)
	conv := &models.Conversation{OrganizerID: uuid.NewString(), ProfessionalID: uuid.NewString(), EventName: "Gala", Status: models.ConversationStatusActive}
	require.NoError(t, store.Conversations.Create(ctx, conv))

	require.NoError(t, store.Conversations.UpdateStatus(ctx, conv.ID, models.ConversationStatusActive, models.ConversationStatusClosed))
	assert.ErrorIs(t, store.Conversations.UpdateStatus(ctx, conv.ID, models.ConversationStatusActive, models.ConversationStatusArchived), ErrStaleStatus)
	assert.ErrorIs(t, store.Conversations.UpdateStatus(ctx, uuid.NewString(), models.ConversationStatusActive, models.ConversationStatusClosed), ErrConversationNotFound)

	later := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Conversations.RecordActivity(ctx, conv.ID, later))
	require.NoError(t, store.Conversations.RecordActivity(ctx, conv.ID, later.Add(-time.Hour)))
	require.NoError(t, store.Conversations.SetLastRead(ctx, conv.ID, models.UserRoleOrganizer, later))

	got, err := store.Conversations.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusClosed, got.Status, "activity leaves the status alone")
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(later), "last_message_at never moves back")
	require.NotNil(t, got.OrganizerLastReadAt)
	assert.Nil(t, got.ProfessionalLastReadAt)
}
