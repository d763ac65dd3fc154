package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker tracks revoked token ids and per-user revocation cutoffs until
// the affected tokens expire.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeUser rejects tokens of userID issued before cutoff.
	RevokeUser(ctx context.Context, userID string, cutoff time.Time, ttl time.Duration) error
	RevokedAfter(ctx context.Context, userID string) (time.Time, error)
}

type expiring struct {
	value   time.Time
	expires time.Time
}

// MemoryRevoker keeps revocations in process; single instance only.
type MemoryRevoker struct {
	mu    sync.Mutex
	jtis  map[string]time.Time
	users map[string]expiring
	now   func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		jtis:  make(map[string]time.Time),
		users: make(map[string]expiring),
		now:   time.Now,
	}
}

func (r *MemoryRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 || jti == "" {
		return nil
	}
	r.mu.Lock()
	r.jtis[jti] = r.now().Add(ttl)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.jtis[jti]
	if !ok {
		return false, nil
	}
	if r.now().After(expiry) {
		delete(r.jtis, jti)
		return false, nil
	}
	return true, nil
}

func (r *MemoryRevoker) RevokeUser(_ context.Context, userID string, cutoff time.Time, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[userID]; ok && cur.value.After(cutoff) {
		return nil
	}
	r.users[userID] = expiring{value: cutoff.UTC(), expires: r.now().Add(ttl)}
	return nil
}

func (r *MemoryRevoker) RevokedAfter(_ context.Context, userID string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[userID]
	if !ok {
		return time.Time{}, nil
	}
	if r.now().After(cur.expires) {
		delete(r.users, userID)
		return time.Time{}, nil
	}
	return cur.value, nil
}

// Purge drops expired entries; called by the token cleanup worker.
func (r *MemoryRevoker) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for k, exp := range r.jtis {
		if now.After(exp) {
			delete(r.jtis, k)
			n++
		}
	}
	for k, u := range r.users {
		if now.After(u.expires) {
			delete(r.users, k)
			n++
		}
	}
	return n
}

// RedisRevoker stores revocations as expiring keys so every instance sees
// them.
type RedisRevoker struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRevoker(client redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{client: client, prefix: "eventhire:revoked:"}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 || jti == "" {
		return nil
	}
	return r.client.Set(ctx, r.prefix+"jti:"+jti, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+"jti:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// revokeUserScript keeps the newest cutoff.
var revokeUserScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

func (r *RedisRevoker) RevokeUser(ctx context.Context, userID string, cutoff time.Time, ttl time.Duration) error {
	return revokeUserScript.Run(ctx, r.client,
		[]string{r.prefix + "user:" + userID},
		cutoff.UnixMicro(), ttl.Milliseconds(),
	).Err()
}

func (r *RedisRevoker) RevokedAfter(ctx context.Context, userID string) (time.Time, error) {
	v, err := r.client.Get(ctx, r.prefix+"user:"+userID).Int64()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(v).UTC(), nil
}
