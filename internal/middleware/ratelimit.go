package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/services"
)

func RateLimit(rateLimitService *services.RateLimitService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			// Auth middleware runs first; missing user means unauthenticated route
			c.Next()
			return
		}

		info, err := rateLimitService.CheckLimit(c.Request.Context(), userID.(int64))
		if err != nil {
			logger.WithError(err).Error("Rate limit check failed")
			// Permissive on limiter failure
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if info.Remaining <= 0 {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded, try again later",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
