package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/response"
)

// RateLimiter fixed-window counter; *redis.Client satisfies it.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc picks the bucket a request is counted in.
type KeyFunc func(c *gin.Context) string

// ByClientIP one bucket per remote address.
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByCaller one bucket per authenticated user. Gateway calls share a bucket
// per gateway address so one noisy gateway cannot starve the crew app.
// Must run after TriggerAuth or JWTAuth.
func ByCaller(c *gin.Context) string {
	if c.GetBool(CtxDevice) {
		return "gateway:" + c.ClientIP()
	}
	if uid := c.GetString(CtxUserID); uid != "" {
		return "user:" + uid
	}
	return ByClientIP(c)
}

// RateLimit allows limit requests per bucket and route within window.
// A nil limiter or a limiter error lets the request through.
func RateLimit(rl RateLimiter, limit int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}

		bucket := "rate_limit:" + c.FullPath() + ":" + key(c)
		allowed, err := rl.CheckRateLimit(c.Request.Context(), bucket, limit, window)
		if err == nil && !allowed {
			c.Header("Retry-After", "60")
			response.Error(c, http.StatusTooManyRequests, 10004, "too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
