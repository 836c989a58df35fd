// Package logger provides the structured logging contract for the Customer Reliability Network.
// Implementations live in internal/infrastructure/monitoring; this package only defines the
// interface, field helpers and value sanitization shared by all implementations.
package logger

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/crn/pkg/constants"
)

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional fields
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger

	// GetLevel returns the current logging level
	GetLevel() constants.LogLevel
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Any creates a field with any type
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// HashPrefix logs only the first 12 characters of a hash, enough to correlate
// log lines without publishing the full lookup key.
func HashPrefix(key string, hash string) Field {
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return Field{Key: key, Value: hash}
}

// ================================================================================
// Sanitization
// ================================================================================

// piiKeys are customer contact fields that must never reach a log sink in raw form.
var piiKeys = []string{"phone", "email", "address", "owner_name", "customer_name"}

// secretKeys are credential fields that are partially masked.
var secretKeys = []string{"password", "secret", "token", "authorization", "pepper", "api_key"}

// SanitizeValue redacts raw PII and masks credentials based on the field key
func SanitizeValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	if strings.HasSuffix(keyLower, "_hash") || strings.HasSuffix(keyLower, "_fragment") ||
		strings.HasSuffix(keyLower, "_last4") || strings.HasSuffix(keyLower, "_domain") {
		return value
	}
	for _, k := range piiKeys {
		if strings.Contains(keyLower, k) {
			return "***REDACTED***"
		}
	}
	for _, k := range secretKeys {
		if strings.Contains(keyLower, k) {
			if str, ok := value.(string); ok && len(str) > 8 {
				return str[:4] + "***" + str[len(str)-4:]
			}
			return "***"
		}
	}
	return value
}
