package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tonspin-backend/internal/services"
)

// RateLimitMiddleware throttles an action per client IP. Rounds have no
// authenticated user; the bettor address only appears at reveal time.
func RateLimitMiddleware(redisService *services.RedisService, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisService == nil {
			c.Next()
			return
		}

		allowed, err := redisService.CheckRateLimit(c.Request.Context(), c.ClientIP(), action, limit, window)
		if err != nil {
			// Fail open: the protocol's own single-consume semantics
			// bound the damage of a missed rate check.
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please wait.",
				},
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
