package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/logger"
)

func observedLogger(level zapcore.Level) (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLoggerFrom(zap.New(core), level), logs
}

func TestZapLoggerRedactsPIIAndCarriesContext(t *testing.T) {
	log, logs := observedLogger(zapcore.DebugLevel)
	ctx := context.WithValue(context.Background(), constants.ContextKeyRequestID, "req-1")
	ctx = context.WithValue(ctx, constants.ContextKeyTenantID, "tenant-9")

	log.WithComponent("customers").Info(ctx, "customer added",
		logger.String("phone", "555-123-4567"),
		logger.HashPrefix("phone_hash", "abcdef0123456789"),
		logger.String("jwt_secret", "supersecretvalue"),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "customers", fields["component"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-9", fields["tenant_id"])
	assert.Equal(t, "***REDACTED***", fields["phone"])
	assert.Equal(t, "abcdef012345", fields["phone_hash"])
	assert.Equal(t, "supe***alue", fields["jwt_secret"])
}

func TestZapLoggerErrorAndLevel(t *testing.T) {
	log, logs := observedLogger(zapcore.WarnLevel)
	log.Info(context.Background(), "dropped")
	log.Error(context.Background(), "store failed", errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
	assert.Equal(t, constants.LogLevelWarn, log.GetLevel())
}

func TestZapLoggerAddsTraceIDs(t *testing.T) {
	tm, _ := inMemoryTracing(t)
	log, logs := observedLogger(zapcore.InfoLevel)

	ctx, span := tm.StartSpan(context.Background(), "op")
	log.Info(ctx, "inside span")
	span.End()

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, TraceID(ctx), fields["trace_id"])
	assert.NotEmpty(t, fields["span_id"])
}

func TestNewZapLoggerFromConfig(t *testing.T) {
	log, err := NewZapLogger(&config.LogConfig{Level: "debug", Format: "console", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, constants.LogLevelDebug, log.GetLevel())

	log, err = NewZapLogger(&config.LogConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, constants.LogLevelInfo, log.GetLevel())
}

func TestMetricsRecordDomainEvents(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordCustomerAdded("created")
	m.RecordCustomerAdded("created")
	m.RecordEventLogged(4, true)
	m.RecordNetworkSearch("phone", false)
	m.RecordCacheAccess("identity_local", true)
	m.RecordRateLimitHit("network_search")
	m.RecordPropertySync(models.SyncResult{Created: 2, Linked: 3, Skipped: 1})
	m.RecordLinkageCandidates("address", []float64{0.9, 0.95})
	m.SetTierDistribution([]models.TierCount{{Tier: models.RiskTierLow, Count: 7}})
	m.ObserveHTTPRequest("/api/v1/customers", "POST", 201, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CustomersAdded.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsLogged.WithLabelValues("4", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NetworkSearches.WithLabelValues("phone", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheAccess.WithLabelValues("identity_local", "hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PropertySync.WithLabelValues("linked")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.TierDistribution.WithLabelValues("low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/customers", "POST", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LinkageConfidence))
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	a, b := NewMetrics(nil), NewMetrics(nil)
	a.RecordRateLimitHit("tenant")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RateLimitHits.WithLabelValues("tenant")))
}

func inMemoryTracing(t *testing.T) (*TracingManager, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tm, err := newTracingManager(&config.TracingConfig{ServiceName: "crn-test", SampleRatio: 1},
		sdktrace.WithSyncer(exporter), logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tm.Shutdown(context.Background()) })
	return tm, exporter
}

func TestTraceOperationRecordsErrors(t *testing.T) {
	tm, exporter := inMemoryTracing(t)

	err := tm.TraceOperation(context.Background(), "resolve", func(context.Context) error {
		return errors.New("no match")
	}, attribute.String("kind", "phone"))
	require.Error(t, err)
	require.NoError(t, tm.TraceOperation(context.Background(), "ok", func(context.Context) error { return nil }))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "resolve", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, codes.Ok, spans[1].Status.Code)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "crn-test", service)
}

func TestDisabledTracingIsNoop(t *testing.T) {
	tm, err := NewTracingManager(&config.TracingConfig{Enabled: false}, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.NoError(t, tm.Shutdown(context.Background()))
}
