package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) (int64, error)
}

func (j funcJob) Name() string                           { return j.name }
func (j funcJob) Interval() time.Duration                { return j.interval }
func (j funcJob) Run(ctx context.Context) (int64, error) { return j.run(ctx) }

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	n, err := RunOnce(ctx, funcJob{name: "ok", run: func(context.Context) (int64, error) { return 4, nil }})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	boom := errors.New("db down")
	_, err = RunOnce(ctx, funcJob{name: "fails", run: func(context.Context) (int64, error) { return 0, boom }})
	assert.ErrorIs(t, err, boom)

	_, err = RunOnce(ctx, funcJob{name: "panics", run: func(context.Context) (int64, error) { panic("nil map") }})
	assert.ErrorIs(t, err, errPanic)
}

func TestRunner_TicksUntilCancelled(t *testing.T) {
	var runs atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRunner(
		funcJob{name: "fast", interval: 5 * time.Millisecond, run: func(context.Context) (int64, error) {
			runs.Add(1)
			return 0, nil
		}},
		funcJob{name: "disabled", interval: 0, run: func(context.Context) (int64, error) {
			t.Error("disabled job must not run")
			return 0, nil
		}},
	)
	r.Start(ctx)
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

type stubExpirer struct{ calls int }

func (s *stubExpirer) ExpireOverdue(context.Context) (int64, error) {
	s.calls++
	return 2, nil
}

func TestRequestExpiryWorker(t *testing.T) {
	exp := &stubExpirer{}
	w := NewRequestExpiryWorker(exp, time.Minute)
	assert.Equal(t, "request_expiry", w.Name())

	n, err := RunOnce(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, exp.calls)
}

func TestTokenCleanupWorker(t *testing.T) {
	ctx := context.Background()
	store, _ := repositories.NewInMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.RefreshTokens.Create(ctx, &models.RefreshToken{UserID: "u1", Token: "old", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.RefreshTokens.Create(ctx, &models.RefreshToken{UserID: "u1", Token: "fresh", ExpiresAt: now.Add(time.Hour)}))

	w := NewTokenCleanupWorker(store.RefreshTokens, time.Minute, func() int { return 3 })
	n, err := w.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = store.RefreshTokens.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, repositories.ErrRefreshTokenNotFound)
	_, err = store.RefreshTokens.FindByToken(ctx, "fresh")
	assert.NoError(t, err)
}

func TestConversationArchiver(t *testing.T) {
	ctx := context.Background()
	store, _ := repositories.NewInMemoryStore()
	longAgo := time.Now().UTC().Add(-45 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	idle := &models.Conversation{OrganizerID: "o", ProfessionalID: "p", EventName: "Old", Status: models.ConversationStatusClosed, LastMessageAt: &longAgo}
	fresh := &models.Conversation{OrganizerID: "o", ProfessionalID: "p", EventName: "New", Status: models.ConversationStatusClosed, LastMessageAt: &recent}
	active := &models.Conversation{OrganizerID: "o", ProfessionalID: "p", EventName: "Live", Status: models.ConversationStatusActive, LastMessageAt: &longAgo}
	for _, c := range []*models.Conversation{idle, fresh, active} {
		require.NoError(t, store.Conversations.Create(ctx, c))
	}

	w := NewConversationArchiver(store.Conversations, time.Hour, 30*24*time.Hour)
	n, err := w.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Conversations.FindByID(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusArchived, got.Status)

	got, err = store.Conversations.FindByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusActive, got.Status)
}
