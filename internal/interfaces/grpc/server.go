// Package grpc serves the standard grpc.health.v1 service. Serving status is
// driven by periodic pings of the same dependencies the HTTP /health endpoint checks.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/turtacn/crn/internal/interfaces/http/handlers"
	"github.com/turtacn/crn/pkg/logger"
)

const (
	defaultProbeInterval = 15 * time.Second
	probeTimeout         = 3 * time.Second
)

// HealthServer owns the gRPC listener and the health probe loop.
type HealthServer struct {
	addr     string
	server   *grpc.Server
	health   *health.Server
	deps     map[string]handlers.Pinger
	interval time.Duration
	log      logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewHealthServer builds the server. Each dependency is also published as its
// own health service name; the empty name reflects all of them together.
func NewHealthServer(port int, deps map[string]handlers.Pinger, interval time.Duration, log logger.Logger) *HealthServer {
	log = log.WithComponent("grpc")
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	live := make(map[string]handlers.Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			live[name] = p
		}
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		UnaryRecovery(log),
		UnaryLogging(log),
		UnaryErrorMapping(),
	))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		addr:     fmt.Sprintf(":%d", port),
		server:   srv,
		health:   hs,
		deps:     live,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Probe pings every dependency once and updates the serving status.
func (s *HealthServer) Probe(ctx context.Context) bool {
	healthy := true
	for name, dep := range s.deps {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := dep.Ping(pctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.log.Warn(ctx, "dependency unhealthy", logger.String("dependency", name), logger.Error(err))
		}
		s.health.SetServingStatus(name, st)
	}
	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	return healthy
}

// Serve starts probing and blocks serving on lis.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.Probe(context.Background())
	s.wg.Add(1)
	go s.probeLoop()
	s.log.Info(context.Background(), "gRPC health server listening", logger.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Start listens on the configured port and serves.
func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls until ctx expires.
func (s *HealthServer) Stop(ctx context.Context) {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}

func (s *HealthServer) probeLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Probe(context.Background())
		}
	}
}
