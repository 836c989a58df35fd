package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/crn/pkg/logger"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	deps map[string]Pinger
	log  logger.Logger
}

// NewHealthHandler creates a new HealthHandler. Untyped nil dependencies are skipped.
func NewHealthHandler(deps map[string]Pinger, log logger.Logger) *HealthHandler {
	live := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{deps: live, log: log}
}

// HealthCheck pings every dependency in parallel and reports 503 if any fails.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	checks := h.performChecks(c.Request.Context())

	status, httpStatus := "healthy", http.StatusOK
	for _, s := range checks {
		if s != "ok" {
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// ReadinessCheck is the same as HealthCheck.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	h.HealthCheck(c)
}

// LivenessCheck only reports that the process serves requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	checks := make(map[string]string, len(h.deps))
	var g errgroup.Group
	for name, dep := range h.deps {
		name, dep := name, dep
		g.Go(func() error {
			status := "ok"
			if err := dep.Ping(ctx); err != nil {
				status = "error: " + err.Error()
				h.log.Warn(ctx, "health check failed", logger.String("dependency", name), logger.Error(err))
			}
			mu.Lock()
			checks[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return checks
}
