// Package constants defines system-wide constants for the Customer Reliability Network.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Service Identity
// ================================================================================

const (
	// ServiceName is the name reported to tracing and logging backends
	ServiceName = "crn"

	// APIVersionPrefix is the route prefix for the public HTTP API
	APIVersionPrefix = "/api/v1"
)

// ================================================================================
// Log Levels
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"

	// LogLevelFatal indicates critical errors that cause service termination
	LogLevelFatal LogLevel = "fatal"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyTenantID is the key for tenant ID in context
	ContextKeyTenantID ContextKey = "tenant_id"

	// ContextKeyRole is the key for the caller's role claim
	ContextKeyRole ContextKey = "role"
)

// ================================================================================
// HTTP Headers
// ================================================================================

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderTraceID       = "X-Trace-ID"
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter    = "Retry-After"
	HeaderIdempotency   = "Idempotency-Key"

	// BearerPrefix precedes the token in the Authorization header
	BearerPrefix = "Bearer "
)

// ================================================================================
// Cache Keys
// ================================================================================

const (
	// CacheKeyIdentityPrefix namespaces identity lookups by hash kind and hash
	CacheKeyIdentityPrefix = "crn:identity:"

	// CacheKeyRateLimitPrefix namespaces rate limit windows
	CacheKeyRateLimitPrefix = "crn:ratelimit:"

	// CacheKeyIdempotencyPrefix namespaces replayed write requests per tenant
	CacheKeyIdempotencyPrefix = "crn:idempotency:"

	// DefaultIdentityCacheTTL is the default lifetime of a cached identity lookup
	DefaultIdentityCacheTTL = 5 * time.Minute

	// DefaultLocalCacheTTL is the default lifetime of in-process cache entries
	DefaultLocalCacheTTL = 30 * time.Second
)

// ================================================================================
// Pagination
// ================================================================================

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ================================================================================
// Rate Limit Scopes
// ================================================================================

// RateLimitScope identifies the resource a limit applies to
type RateLimitScope string

const (
	// RateLimitScopeNetworkSearch limits hash probing of the shared network
	RateLimitScopeNetworkSearch RateLimitScope = "network_search"

	// RateLimitScopeTenant is the general per-tenant request budget
	RateLimitScopeTenant RateLimitScope = "tenant"
)

// ================================================================================
// Roles
// ================================================================================

const (
	// RoleAdmin may run operator endpoints across tenants
	RoleAdmin = "admin"
)
