package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notify-center/internal/ratelimit"
	"notify-center/pkg/metrics"
)

// RateLimitMiddleware rejects calls beyond maxCalls per period for one
// (identity, route) pair with 429, echoing the limit so clients can back
// off. Anonymous callers are keyed by client IP.
func RateLimitMiddleware(limiter *ratelimit.Limiter, maxCalls int, period time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == "" {
			identity = c.ClientIP()
		}
		route := c.FullPath()
		if !limiter.Allow(identity, route, maxCalls, period) {
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":          "rate limit exceeded",
				"limit":          maxCalls,
				"period_seconds": int(period.Seconds()),
				"identity":       identity,
			})
			return
		}
		c.Next()
	}
}
