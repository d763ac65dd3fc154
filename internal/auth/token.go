package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhire_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

const leeway = 30 * time.Second

// Claims are carried by every access token.
type Claims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// TokenManager issues HS256 access tokens and validates them against the
// revocation list.
type TokenManager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration, revoker Revoker) *TokenManager {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &TokenManager{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     ttl,
		revoker: revoker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new access token and returns it with its expiry.
func (m *TokenManager) Issue(userID string, role models.UserRole) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

func (m *TokenManager) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Validate checks signature, expiry and revocation.
func (m *TokenManager) Validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	cutoff, err := m.revoker.RevokedAfter(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("check user revocation: %w", err)
	}
	// iat has second precision, so the cutoff is compared at the same
	// granularity.
	if !cutoff.IsZero() && (claims.IssuedAt == nil || claims.IssuedAt.Time.Before(cutoff.Truncate(time.Second))) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blacklists the token's jti until it would have expired anyway.
// Tokens that no longer parse need no revocation.
func (m *TokenManager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now()) + leeway
	return m.revoker.Revoke(ctx, claims.ID, ttl)
}

// RevokeUser invalidates every token issued to userID up to now.
func (m *TokenManager) RevokeUser(ctx context.Context, userID string) error {
	return m.revoker.RevokeUser(ctx, userID, m.now(), m.ttl+leeway)
}

// RandomToken returns a hex encoded random string of n bytes, used for
// refresh, verification and reset tokens.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
