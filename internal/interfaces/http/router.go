// Package http wires the gin engine of the public API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/infrastructure/monitoring"
	"github.com/turtacn/crn/internal/interfaces/http/handlers"
	"github.com/turtacn/crn/internal/interfaces/http/middleware"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// Handlers groups the route handlers.
type Handlers struct {
	Health    *handlers.HealthHandler
	Customers *handlers.CustomerHandler
	Network   *handlers.NetworkHandler
	Admin     *handlers.AdminHandler
}

// Guards groups the per-route middleware built by the caller. RateLimit and
// Idempotency may be nil.
type Guards struct {
	Auth        gin.HandlerFunc
	RateLimit   gin.HandlerFunc
	Idempotency gin.HandlerFunc
}

// Router is the HTTP router.
type Router struct {
	engine   *gin.Engine
	config   *config.ServerConfig
	logger   logger.Logger
	metrics  *monitoring.Metrics
	tracer   trace.Tracer
	handlers Handlers
	guards   Guards
	server   *http.Server
}

// NewRouter creates a router and registers every route.
func NewRouter(cfg *config.ServerConfig, log logger.Logger, metrics *monitoring.Metrics, tracer trace.Tracer, h Handlers, g Guards) *Router {
	gin.SetMode(gin.ReleaseMode)
	r := &Router{
		engine:   gin.New(),
		config:   cfg,
		logger:   log,
		metrics:  metrics,
		tracer:   tracer,
		handlers: h,
		guards:   g,
	}
	r.setupRoutes()
	r.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:        r.engine,
		ReadTimeout:    time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return r
}

func (r *Router) setupRoutes() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Observability(r.tracer, r.metrics))
	r.engine.Use(middleware.Logging(r.logger))

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins: r.config.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", constants.HeaderAuthorization,
			constants.HeaderRequestID, constants.HeaderIdempotency,
		},
		ExposeHeaders: []string{
			constants.HeaderRequestID, constants.HeaderTraceID, constants.HeaderRateLimit,
			constants.HeaderRateRemaining, constants.HeaderRetryAfter,
		},
		MaxAge: 12 * time.Hour,
	}))

	r.engine.GET("/health", r.handlers.Health.HealthCheck)
	r.engine.GET("/ready", r.handlers.Health.ReadinessCheck)
	r.engine.GET("/live", r.handlers.Health.LivenessCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.metrics.Registry(), promhttp.HandlerOpts{})))

	if r.config.EnablePprof {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group(constants.APIVersionPrefix)
	v1.Use(r.guards.Auth)
	if r.guards.RateLimit != nil {
		v1.Use(r.guards.RateLimit)
	}
	idem := r.guards.Idempotency
	if idem == nil {
		idem = func(c *gin.Context) { c.Next() }
	}

	customers := v1.Group("/customers")
	{
		customers.POST("", idem, r.handlers.Customers.AddCustomer)
		customers.GET("", r.handlers.Customers.ListCustomers)
		customers.GET("/:id", r.handlers.Customers.GetCustomer)
		customers.PUT("/:id", r.handlers.Customers.UpdateCustomer)
		customers.DELETE("/:id", r.handlers.Customers.DeleteCustomer)
		customers.POST("/:id/events", idem, r.handlers.Customers.LogEvent)
		customers.GET("/:id/events", r.handlers.Customers.ListEvents)
		customers.GET("/:id/reliability", r.handlers.Customers.GetReliability)
		customers.GET("/:id/property-matches", r.handlers.Customers.GetPropertyMatches)
		customers.POST("/:id/enrich", r.handlers.Customers.EnrichCustomer)
	}

	network := v1.Group("/network")
	{
		network.GET("/search", r.handlers.Network.SearchNetwork)
		network.GET("/identities/:id", r.handlers.Network.GetIdentity)
	}
	v1.GET("/properties/search", r.handlers.Network.SearchProperties)

	admin := v1.Group("/admin", middleware.RequireAdmin())
	{
		admin.POST("/businesses", r.handlers.Admin.CreateBusiness)
		admin.GET("/businesses", r.handlers.Admin.ListBusinesses)
		admin.GET("/businesses/:id", r.handlers.Admin.GetBusiness)
		admin.POST("/properties/import", r.handlers.Admin.ImportProperties)
		admin.POST("/properties/sync", r.handlers.Admin.SyncProperties)
		admin.POST("/identities/merge", r.handlers.Admin.MergeIdentities)
		admin.POST("/jobs/clean-streak", r.handlers.Admin.RunCleanStreakJob)
		admin.GET("/reports/tiers", r.handlers.Admin.TierReport)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		dto.SendError(c, errors.ErrNotFound("route", c.Request.URL.Path))
	})
}

// Start serves until Stop is called.
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine returns the gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
