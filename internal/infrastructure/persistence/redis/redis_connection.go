// Package redis provides the Redis connection and the Redis-backed identity cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/pkg/logger"
)

// RedisConnection owns the Redis client. Addresses with more than one entry select
// cluster mode through the universal client.
type RedisConnection struct {
	client redis.UniversalClient
	logger logger.Logger
}

// NewRedisConnection connects and pings once.
func NewRedisConnection(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*RedisConnection, error) {
	log = log.WithComponent("redis")
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addresses,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &RedisConnection{client: client, logger: log}
	if err := rc.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	log.Info(ctx, "Redis connection established", logger.Int("addresses", len(cfg.Addresses)))
	return rc, nil
}

// NewRedisConnectionFromClient wraps an existing client.
func NewRedisConnectionFromClient(client redis.UniversalClient, log logger.Logger) *RedisConnection {
	return &RedisConnection{client: client, logger: log}
}

// Client returns the underlying client.
func (rc *RedisConnection) Client() redis.UniversalClient {
	return rc.client
}

// Ping checks connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// HealthCheck pings and reports pool statistics.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := rc.Ping(ctx); err != nil {
		return nil, err
	}
	stats := rc.client.PoolStats()
	return map[string]interface{}{
		"status":      "healthy",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}, nil
}

// Close closes the client.
func (rc *RedisConnection) Close() error {
	rc.logger.Info(context.Background(), "Closing Redis connection")
	return rc.client.Close()
}
