// Command crn-server runs the Customer Reliability Network HTTP API and gRPC
// health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/crn/internal/app"
	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/infrastructure/messaging"
	"github.com/turtacn/crn/internal/infrastructure/monitoring"
	grpcserver "github.com/turtacn/crn/internal/interfaces/grpc"
	crnhttp "github.com/turtacn/crn/internal/interfaces/http"
	"github.com/turtacn/crn/internal/interfaces/http/handlers"
	"github.com/turtacn/crn/internal/interfaces/http/middleware"
	"github.com/turtacn/crn/pkg/logger"
)

func main() {
	configFile := flag.String("config", "", "path to the config file")
	flag.Parse()

	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})
	if err != nil {
		log.Fatalf("Failed to create startup logger: %v", err)
	}

	loader := config.NewLoader(startupLogger, *configFile)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}

	c, err := app.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize services", err)
	}
	loader.WatchScoring(c.Scoring)

	go app.NewStreakScheduler(c.Maintenance, cfg.Jobs.StreakInterval, cfg.Jobs.StreakBatchSize, appLogger).Run(ctx)

	var consumer *messaging.IncidentConsumer
	if cfg.Kafka.Enabled {
		consumer = messaging.NewIncidentConsumer(cfg.Kafka, c.Cache, appLogger)
		go consumer.Start(ctx)
	}

	deps := map[string]handlers.Pinger{"database": c.DB}
	if c.Redis != nil {
		deps["redis"] = c.Redis
	}

	guards := crnhttp.Guards{
		Auth:      middleware.TenantAuth([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, c.Business, appLogger),
		RateLimit: middleware.TenantRateLimit(c.Limiter, cfg.RateLimit.TenantRPM, c.Metrics, appLogger),
	}
	if c.Redis != nil {
		guards.Idempotency = middleware.Idempotency(c.Redis.Client(), &cfg.Idempotency, appLogger)
	}

	router := crnhttp.NewRouter(&cfg.Server, appLogger, c.Metrics, tracing.Tracer(), crnhttp.Handlers{
		Health:    handlers.NewHealthHandler(deps, appLogger),
		Customers: handlers.NewCustomerHandler(c.Customers, c.Reliability, c.Properties),
		Network:   handlers.NewNetworkHandler(c.Network, c.Properties),
		Admin:     handlers.NewAdminHandler(c.Business, c.Properties, c.Maintenance),
	}, guards)
	health := grpcserver.NewHealthServer(cfg.Server.GRPCPort, deps, 0, appLogger)

	errCh := make(chan error, 2)
	go func() { errCh <- router.Start() }()
	go func() { errCh <- health.Start() }()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			appLogger.Error(context.Background(), "Server failed", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP shutdown failed", err)
	}
	health.Stop(shutdownCtx)
	if consumer != nil {
		consumer.Stop()
	}
	c.Close()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn(shutdownCtx, "Tracing shutdown failed", logger.Error(err))
	}
	appLogger.Info(shutdownCtx, "Server stopped")
}
