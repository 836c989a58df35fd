package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/crn/internal/domain/service"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite_path: /tmp/crn.db
auth:
  jwt_secret: s3cret
scoring:
  tier_critical_min: 60
`)
	cfg, err := NewLoader(logger.NewNoopLogger(), path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/crn.db", cfg.Database.GetDSN())
	assert.Equal(t, 5*time.Minute, cfg.Redis.IdentityCacheTTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.NetworkSearchWindow)
	assert.Equal(t, 60, cfg.Scoring.TierCriticalMin)
	assert.Equal(t, []int{1, 2, 12, 24, 30}, cfg.Scoring.SeverityDeductions)
	assert.Equal(t, 25, cfg.Scoring.CandidateLimit)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n  sqlite_path: /tmp/a.db\n")
	t.Setenv("CRN_AUTH_JWT_SECRET", "from-env")
	t.Setenv("CRN_SERVER_PORT", "9090")
	t.Setenv("CRN_PRIVACY_PEPPER", "pepper")

	cfg, err := NewLoader(logger.NewNoopLogger(), path).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "pepper", cfg.Privacy.Pepper)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite_path: /tmp/a.db
auth:
  jwt_secret: x
scoring:
  severity_deductions: [1, 2]
`)
	_, err := NewLoader(logger.NewNoopLogger(), path).Load()
	require.Error(t, err)
	assert.True(t, crnerrors.IsValidationError(err))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Database:  DatabaseConfig{Driver: "postgres", Host: "db", Database: "crn"},
			Auth:      AuthConfig{JWTSecret: "x"},
			RateLimit: RateLimitConfig{NetworkSearchLimit: 10, NetworkSearchWindow: time.Minute},
			Scoring:   service.DefaultScoringConfig(),
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"redis without addresses", func(c *Config) { c.Redis.Enabled = true }},
		{"kafka without topic", func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"b:9092"}} }},
		{"vault without path", func(c *Config) { c.Vault = VaultConfig{Enabled: true, Address: "http://v"} }},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero search window", func(c *Config) { c.RateLimit.NetworkSearchWindow = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "crn", Password: "p@ss", Database: "crn", SSLMode: "disable"}
	assert.Equal(t, "postgres://crn:p%40ss@db:5432/crn?sslmode=disable", c.GetURL())
}
