package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/crn/internal/domain/models"
)

const namespace = "crn"

// Metrics holds every Prometheus collector of the service and implements
// service.Metrics. HTTP collectors are fed by the metrics middleware.
type Metrics struct {
	registry *prometheus.Registry

	CustomersAdded      *prometheus.CounterVec
	EventsLogged        *prometheus.CounterVec
	IdentityResolutions *prometheus.CounterVec
	NetworkSearches     *prometheus.CounterVec
	LinkageConfidence   *prometheus.HistogramVec
	PropertySync        *prometheus.CounterVec
	CacheAccess         *prometheus.CounterVec
	RateLimitHits       *prometheus.CounterVec
	DBQueryLatency      *prometheus.HistogramVec
	TierDistribution    *prometheus.GaugeVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge
}

// NewMetrics registers all collectors on reg. A nil reg uses a fresh registry, so
// tests can create as many instances as they like.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CustomersAdded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "customers_added_total",
			Help: "Customer add attempts by outcome.",
		}, []string{"outcome"}),
		EventsLogged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_logged_total",
			Help: "Reliability events logged by severity and polarity.",
		}, []string{"severity", "negative"}),
		IdentityResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "identity_resolutions_total",
			Help: "Network identity resolutions by outcome.",
		}, []string{"outcome"}),
		NetworkSearches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "network_searches_total",
			Help: "Network searches by lookup kind and result.",
		}, []string{"kind", "result"}),
		LinkageConfidence: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "linkage_candidate_confidence",
			Help:    "Confidence of property linkage candidates by pass.",
			Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		}, []string{"pass"}),
		PropertySync: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "property_sync_records_total",
			Help: "Property batch sync records by result.",
		}, []string{"result"}),
		CacheAccess: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_access_total",
			Help: "Cache lookups by tier and result.",
		}, []string{"cache", "result"}),
		RateLimitHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limit_hits_total",
			Help: "Requests rejected by a rate limit.",
		}, []string{"scope"}),
		DBQueryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "db_query_duration_seconds",
			Help:    "Database statement latency by operation and table.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		TierDistribution: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "network_identities",
			Help: "Network identities per risk tier at the last report.",
		}, []string{"tier"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		HTTPActiveRequests: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_active_requests",
			Help: "HTTP requests currently in flight.",
		}),
	}
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordCustomerAdded(outcome string) {
	m.CustomersAdded.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordEventLogged(severity int, negative bool) {
	m.EventsLogged.WithLabelValues(strconv.Itoa(severity), strconv.FormatBool(negative)).Inc()
}

func (m *Metrics) RecordIdentityResolution(outcome string) {
	m.IdentityResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordNetworkSearch(kind string, hit bool) {
	m.NetworkSearches.WithLabelValues(kind, hitLabel(hit)).Inc()
}

func (m *Metrics) RecordLinkageCandidates(pass string, confidences []float64) {
	h := m.LinkageConfidence.WithLabelValues(pass)
	for _, c := range confidences {
		h.Observe(c)
	}
}

func (m *Metrics) RecordPropertySync(result models.SyncResult) {
	m.PropertySync.WithLabelValues("created").Add(float64(result.Created))
	m.PropertySync.WithLabelValues("linked").Add(float64(result.Linked))
	m.PropertySync.WithLabelValues("skipped").Add(float64(result.Skipped))
}

func (m *Metrics) RecordCacheAccess(cacheType string, hit bool) {
	m.CacheAccess.WithLabelValues(cacheType, hitLabel(hit)).Inc()
}

func (m *Metrics) RecordRateLimitHit(scope string) {
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) SetTierDistribution(counts []models.TierCount) {
	for _, c := range counts {
		m.TierDistribution.WithLabelValues(string(c.Tier)).Set(float64(c.Count))
	}
}

// ObserveHTTPRequest records one finished request.
func (m *Metrics) ObserveHTTPRequest(path, method string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(path, method).Observe(d.Seconds())
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
