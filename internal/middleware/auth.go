package middleware

import (
	"context"
	"errors"
	"strings"

	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/pkg/apperrors"
	"eventhire_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// TokenValidator is satisfied by *auth.TokenManager.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// tokenFromRequest reads the bearer header, falling back to the
// access_token query parameter used by websocket clients.
func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("access_token")
}

func authenticate(c *gin.Context, tokens TokenValidator, token string) error {
	claims, err := tokens.Validate(c.Request.Context(), token)
	if err != nil {
		return err
	}
	c.Set(contextkeys.UserIDKey, claims.UserID())
	c.Set(contextkeys.RoleKey, claims.Role)
	c.Set(contextkeys.ClaimsKey, claims)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID()))
	return nil
}

// AuthMiddleware rejects requests without a valid, unrevoked access token.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		if err := authenticate(c, tokens, token); err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenRevoked):
				apperrors.HandleError(c, apperrors.NewUnauthorizedError("Token has been revoked"))
			case errors.Is(err, auth.ErrInvalidToken):
				apperrors.HandleError(c, apperrors.ErrInvalidToken)
			default:
				logger.CtxWithError(c.Request.Context(), "token validation failed", err)
				apperrors.HandleError(c, apperrors.ExternalServiceError(err, "auth", "Unable to validate token"))
			}
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid token is
// present and lets anonymous requests through otherwise.
func OptionalAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if err := authenticate(c, tokens, token); err != nil {
				logger.CtxDebug(c.Request.Context(), "ignoring invalid optional token", "error", err)
			}
		}
		c.Next()
	}
}

// RequireRoles lets through callers holding one of roles. It must run
// after AuthMiddleware.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if _, ok := allowed[role]; !ok {
			logger.CtxWarn(c.Request.Context(), "role not allowed", "role", role, "path", c.FullPath())
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: insufficient role"))
			return
		}
		c.Next()
	}
}

// AdminMiddleware is RequireRoles(admin).
func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(models.UserRoleAdmin)
}

func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func GetRole(c *gin.Context) models.UserRole {
	v, ok := c.Get(contextkeys.RoleKey)
	if !ok {
		return ""
	}
	role, _ := v.(models.UserRole)
	return role
}
