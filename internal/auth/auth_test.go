package auth

import (
	"context"
	"testing"
	"time"

	"eventhire_backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("Sup3rSecret!", hash))
	assert.False(t, CheckPasswordHash("sup3rsecret!", hash))
	assert.False(t, CheckPasswordHash("anything", "!"), "disabled hash never matches")

	assert.NoError(t, ValidatePassword("abcdefg1"))
	assert.ErrorIs(t, ValidatePassword("short1"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword("lettersonly"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword("12345678"), ErrWeakPassword)
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager("secret", "eventhire", time.Hour, nil)

	token, exp, err := m.Issue("user-1", models.UserRoleProfessional)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, models.UserRoleProfessional, claims.Role)
	assert.NotEmpty(t, claims.ID)

	other := NewTokenManager("other-secret", "eventhire", time.Hour, nil)
	_, err = other.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour, nil)
	_, err = wrongIssuer.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestTokenManager_InvalidRoleRejected(t *testing.T) {
	m := NewTokenManager("secret", "eventhire", time.Hour, nil)
	token, _, err := m.Issue("user-1", models.UserRole("superuser"))
	require.NoError(t, err)
	_, err = m.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func testRevocation(t *testing.T, revoker Revoker) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	m := NewTokenManager("secret", "eventhire", time.Hour, revoker)
	m.now = func() time.Time { return base }

	first, _, err := m.Issue("user-1", models.UserRoleOrganizer)
	require.NoError(t, err)
	second, _, err := m.Issue("user-1", models.UserRoleOrganizer)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, first))
	_, err = m.Validate(ctx, first)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = m.Validate(ctx, second)
	assert.NoError(t, err)

	assert.NoError(t, m.Revoke(ctx, "garbage"), "unparseable tokens need no revocation")

	m.now = func() time.Time { return base.Add(2 * time.Second) }
	require.NoError(t, m.RevokeUser(ctx, "user-1"))
	_, err = m.Validate(ctx, second)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	fresh, _, err := m.Issue("user-1", models.UserRoleOrganizer)
	require.NoError(t, err)
	_, err = m.Validate(ctx, fresh)
	assert.NoError(t, err, "tokens issued in the cutoff second stay valid")

	cutoff, err := revoker.RevokedAfter(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, revoker.RevokeUser(ctx, "user-1", cutoff.Add(-time.Minute), time.Hour))
	kept, err := revoker.RevokedAfter(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, kept.Equal(cutoff), "an older cutoff never replaces a newer one")
}

func TestMemoryRevoker(t *testing.T) {
	testRevocation(t, NewMemoryRevoker())
}

func TestRedisRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	testRevocation(t, NewRedisRevoker(client))

	ctx := context.Background()
	require.NoError(t, NewRedisRevoker(client).Revoke(ctx, "jti-x", time.Minute))
	mr.FastForward(2 * time.Minute)
	revoked, err := NewRedisRevoker(client).IsRevoked(ctx, "jti-x")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevoker_Purge(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "a", time.Minute))
	require.NoError(t, r.RevokeUser(ctx, "u", now, time.Minute))
	assert.Zero(t, r.Purge())

	r.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Equal(t, 2, r.Purge())
}
