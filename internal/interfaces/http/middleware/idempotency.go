package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

const maxIdempotencyKeyLen = 128

// Idempotency rejects a write whose Idempotency-Key the tenant has already used
// within the TTL, so a retried LogEvent cannot count an incident twice. Requests
// without the header pass through. Redis failures fail open. A failed request
// releases its key.
func Idempotency(client redis.UniversalClient, cfg *config.IdempotencyConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !cfg.Enabled {
			c.Next()
			return
		}
		key := c.GetHeader(constants.HeaderIdempotency)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			abort(c, errors.ErrInvalidParameterFormat(constants.HeaderIdempotency, "at most 128 characters"))
			return
		}

		redisKey := constants.CacheKeyIdempotencyPrefix + TenantID(c) + ":" + key
		isNew, err := client.SetNX(c.Request.Context(), redisKey, 1, cfg.TTL).Result()
		if err != nil {
			log.Error(c.Request.Context(), "idempotency check failed", err)
			c.Next()
			return
		}
		if !isNew {
			log.Warn(c.Request.Context(), "replayed idempotency key", logger.String("path", c.FullPath()))
			abort(c, errors.ErrConflict("request with this Idempotency-Key was already processed").
				WithMetadata("idempotency_key", key))
			return
		}

		c.Next()

		// A failed request may be retried with the same key.
		if c.Writer.Status() >= 400 {
			if err := client.Del(c.Request.Context(), redisKey).Err(); err != nil {
				log.Warn(c.Request.Context(), "idempotency key release failed", logger.Error(err))
			}
		}
	}
}
