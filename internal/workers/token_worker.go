package workers

import (
	"context"
	"time"

	"eventhire_backend/internal/repositories"
)

// Purger drops expired in-process state; the memory revoker and the local
// rate limiter implement it through small adapters.
type Purger func() int

// TokenCleanupWorker deletes expired refresh tokens and purges in-process
// caches that would otherwise grow without bound.
type TokenCleanupWorker struct {
	tokens   repositories.RefreshTokenRepository
	purgers  []Purger
	interval time.Duration
	now      func() time.Time
}

func NewTokenCleanupWorker(tokens repositories.RefreshTokenRepository, interval time.Duration, purgers ...Purger) *TokenCleanupWorker {
	return &TokenCleanupWorker{
		tokens:   tokens,
		purgers:  purgers,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *TokenCleanupWorker) Name() string            { return "token_cleanup" }
func (w *TokenCleanupWorker) Interval() time.Duration { return w.interval }

func (w *TokenCleanupWorker) Run(ctx context.Context) (int64, error) {
	deleted, err := w.tokens.DeleteExpired(ctx, w.now())
	if err != nil {
		return 0, err
	}
	for _, purge := range w.purgers {
		deleted += int64(purge())
	}
	return deleted, nil
}
