// Package app assembles the infrastructure and application services from Config.
// Both the API server and crn-admin build on it.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	appservice "github.com/turtacn/crn/internal/application/service"
	"github.com/turtacn/crn/internal/config"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/internal/domain/repository"
	"github.com/turtacn/crn/internal/infrastructure/messaging"
	"github.com/turtacn/crn/internal/infrastructure/monitoring"
	"github.com/turtacn/crn/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/crn/internal/infrastructure/persistence/redis"
	"github.com/turtacn/crn/internal/infrastructure/ratelimit"
	"github.com/turtacn/crn/internal/infrastructure/secrets"
	"github.com/turtacn/crn/pkg/logger"
)

// Container holds every long-lived component. Redis and Producer are nil when
// disabled in config.
type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *monitoring.Metrics
	Scoring *domainservice.ScoringProvider

	DB       *postgres.DBConnection
	Redis    *redis.RedisConnection
	Cache    *redis.IdentityCache
	Limiter  domainservice.RateLimiter
	Producer *messaging.IncidentProducer

	Businesses repository.BusinessRepository

	Customers   appservice.CustomerAppService
	Network     appservice.NetworkAppService
	Properties  appservice.PropertyAppService
	Reliability appservice.ReliabilityAppService
	Maintenance appservice.MaintenanceAppService
	Business    appservice.BusinessAppService

	closers []func() error
}

// Build connects to every enabled backend and wires the services. On error,
// whatever was already opened is closed.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (c *Container, err error) {
	c = &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: monitoring.NewMetrics(prometheus.NewRegistry()),
		Scoring: domainservice.NewScoringProvider(cfg.Scoring),
	}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	pepper, err := secrets.ResolvePepper(ctx, cfg, log)
	if err != nil {
		return c, fmt.Errorf("resolve pepper: %w", err)
	}
	if pepper == "" {
		return c, fmt.Errorf("privacy pepper is empty: set privacy.pepper or enable vault")
	}

	c.DB, err = postgres.NewDBConnection(ctx, &cfg.Database, log)
	if err != nil {
		return c, err
	}
	c.closers = append(c.closers, c.DB.Close)
	if cfg.Database.AutoMigrate {
		if err = c.DB.Migrate(ctx); err != nil {
			return c, err
		}
	}
	if err = c.DB.InstrumentQueries(c.Metrics); err != nil {
		return c, err
	}

	if cfg.Redis.Enabled {
		c.Redis, err = redis.NewRedisConnection(ctx, &cfg.Redis, log)
		if err != nil {
			return c, err
		}
		c.closers = append(c.closers, c.Redis.Close)
		c.Limiter = ratelimit.NewRedisRateLimiter(c.Redis.Client(), log)
	} else {
		c.Limiter = ratelimit.NewLocalRateLimiter()
	}
	c.Cache = redis.NewIdentityCache(c.Redis, cfg.Redis.IdentityCacheTTL, cfg.Redis.LocalCacheTTL, c.Metrics, log)

	var publisher domainservice.IncidentPublisher
	if cfg.Kafka.Enabled {
		c.Producer = messaging.NewIncidentProducer(cfg.Kafka, log)
		c.closers = append(c.closers, c.Producer.Close)
		publisher = c.Producer
	}

	db := c.DB.DB()
	customers := postgres.NewCustomerRepository(db, log)
	events := postgres.NewEventRepository(db, log)
	identities := postgres.NewNetworkIdentityRepository(db, log)
	properties := postgres.NewPropertyRepository(db, log)
	c.Businesses = postgres.NewBusinessRepository(db, log)

	clock := domainservice.SystemClock{}
	hasher := domainservice.NewHasher(pepper)
	resolver := domainservice.NewIdentityResolver(identities, c.Scoring, clock, c.Metrics, log)
	linker := domainservice.NewRecordLinker(properties, c.Scoring, c.Metrics)
	writer := appservice.NewNetworkWriter(resolver, hasher, c.Cache, publisher, clock, log)

	limits := appservice.NetworkSearchLimits{
		Limit:  cfg.RateLimit.NetworkSearchLimit,
		Window: cfg.RateLimit.NetworkSearchWindow,
	}
	c.Customers = appservice.NewCustomerAppService(customers, events, writer, c.Metrics, clock, log)
	c.Network = appservice.NewNetworkAppService(identities, properties, resolver, hasher, c.Cache, c.Limiter, limits, c.Scoring, c.Metrics, log)
	c.Properties = appservice.NewPropertyAppService(properties, customers, linker, resolver, hasher, writer, c.Scoring, c.Metrics, clock, log)
	c.Reliability = appservice.NewReliabilityAppService(customers, events, c.Scoring, log)
	c.Maintenance = appservice.NewMaintenanceAppService(identities, resolver, writer, c.Metrics, log)
	c.Business = appservice.NewBusinessAppService(c.Businesses, cfg.Auth.BusinessCacheTTL, clock, log)

	return c, nil
}

// Close releases connections in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn(context.Background(), "close failed", logger.Error(err))
		}
	}
	c.closers = nil
}
