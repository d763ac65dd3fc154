package middleware

import (
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
	"eventhire_backend/internal/ratelimit"
	"eventhire_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware limits requests per client IP under scope.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		if !limiter.Allow(c.Request.Context(), key) {
			metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
			logger.CtxWarn(c.Request.Context(), "rate limit exceeded", "scope", scope, "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.NewTooManyRequestsError("Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}
