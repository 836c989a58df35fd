package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// TenantRateLimit applies the per-tenant request budget of rpm requests per minute.
// It must run after TenantAuth. Limiter failures fail open.
func TenantRateLimit(limiter domainservice.RateLimiter, rpm int, metrics domainservice.Metrics, log logger.Logger) gin.HandlerFunc {
	scope := string(constants.RateLimitScopeTenant)
	return func(c *gin.Context) {
		tenantID := TenantID(c)
		if limiter == nil || rpm <= 0 || tenantID == "" {
			c.Next()
			return
		}

		allowed, remaining, resetAt, err := limiter.Allow(c.Request.Context(), scope, tenantID, rpm, time.Minute)
		if err != nil {
			log.Warn(c.Request.Context(), "rate limiter failed", logger.Error(err))
			c.Next()
			return
		}
		c.Header(constants.HeaderRateLimit, strconv.Itoa(rpm))
		c.Header(constants.HeaderRateRemaining, strconv.Itoa(remaining))

		if !allowed {
			metrics.RecordRateLimitHit(scope)
			abort(c, errors.ErrRateLimitExceeded(scope, rpm).WithMetadata("reset_at", resetAt.UTC().Format(time.RFC3339)))
			return
		}
		c.Next()
	}
}
