package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// Counter counts hits in fixed windows. Implemented by the Redis client.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RateLimit caps requests per client IP in a one minute window. Requests
// are let through when the counter is unavailable.
func RateLimit(counter Counter, perMinute int, logger logrus.FieldLogger) gin.HandlerFunc {
	return limit(counter, "rate_limit", perMinute, time.Minute, logger)
}

// TrackingThrottle caps order tracking lookups per client IP per hour so
// tracking codes cannot be enumerated.
func TrackingThrottle(counter Counter, perHour int, logger logrus.FieldLogger) gin.HandlerFunc {
	return limit(counter, "track_limit", perHour, time.Hour, logger)
}

func limit(counter Counter, prefix string, max int, window time.Duration, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", prefix, c.ClientIP())
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		n, err := counter.Hit(ctx, key, window)
		if err != nil {
			logger.WithError(err).WithField("key", key).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		remaining := int64(max) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > int64(max) {
			retry := window
			if ttl, err := counter.TTL(ctx, key); err == nil && ttl > 0 {
				retry = ttl
			}
			c.Header("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
			response.Error(c, apperr.Errorf(apperr.ERATELIMIT, "http.rate_limit", "rate limit exceeded"))
			return
		}

		c.Next()
	}
}
