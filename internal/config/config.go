package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/turtacn/crn/internal/domain/service"
)

// Config holds the application's configuration.
type Config struct {
	Server      ServerConfig          `mapstructure:"server"`
	Database    DatabaseConfig        `mapstructure:"database"`
	Redis       RedisConfig           `mapstructure:"redis"`
	Kafka       KafkaConfig           `mapstructure:"kafka"`
	Vault       VaultConfig           `mapstructure:"vault"`
	Auth        AuthConfig            `mapstructure:"auth"`
	RateLimit   RateLimitConfig       `mapstructure:"rate_limit"`
	Idempotency IdempotencyConfig     `mapstructure:"idempotency"`
	Privacy     PrivacyConfig         `mapstructure:"privacy"`
	Scoring     service.ScoringConfig `mapstructure:"scoring"`
	Jobs        JobsConfig            `mapstructure:"jobs"`
	Log         LogConfig             `mapstructure:"log"`
	Tracing     TracingConfig         `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	GRPCPort        int      `mapstructure:"grpc_port"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // in seconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // in seconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // in seconds
	EnablePprof     bool     `mapstructure:"enable_pprof"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

// DatabaseConfig selects the gorm dialect. "sqlite" is for local runs and tests.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"`  // in minutes
	MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"` // in minutes
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetURL returns the postgres URL form used by pgxpool.
func (c *DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Addresses        []string      `mapstructure:"addresses"`
	Password         string        `mapstructure:"password"`
	DB               int           `mapstructure:"db"`
	PoolSize         int           `mapstructure:"pool_size"`
	MinIdleConns     int           `mapstructure:"min_idle_conns"`
	IdentityCacheTTL time.Duration `mapstructure:"identity_cache_ttl"`
	LocalCacheTTL    time.Duration `mapstructure:"local_cache_ttl"`
}

type KafkaConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Brokers       []string      `mapstructure:"brokers"`
	IncidentTopic string        `mapstructure:"incident_topic"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	// SigningKey, when set, HMAC-signs every incident message.
	SigningKey string `mapstructure:"signing_key"`
}

type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
	// PepperPath and PepperKey locate the hashing pepper in the KV v2 mount.
	PepperPath string `mapstructure:"pepper_path"`
	PepperKey  string `mapstructure:"pepper_key"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	// BusinessCacheTTL bounds how long a verified tenant stays in the local cache.
	BusinessCacheTTL time.Duration `mapstructure:"business_cache_ttl"`
}

type RateLimitConfig struct {
	NetworkSearchLimit  int           `mapstructure:"network_search_limit"`
	NetworkSearchWindow time.Duration `mapstructure:"network_search_window"`
	TenantRPM           int           `mapstructure:"tenant_rpm"`
}

// IdempotencyConfig controls replay protection of write requests carrying an
// Idempotency-Key header. It needs Redis.
type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type PrivacyConfig struct {
	// Pepper keys the identity hashes. Overridden by Vault when enabled.
	Pepper string `mapstructure:"pepper"`
}

type JobsConfig struct {
	SyncBatchSize   int `mapstructure:"sync_batch_size"`
	StreakBatchSize int `mapstructure:"streak_batch_size"`
	// StreakInterval is how often the server recomputes clean streaks. Zero disables
	// the in-process schedule; crn-admin identity streak can then run from cron.
	StreakInterval time.Duration `mapstructure:"streak_interval"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("database.host and database.database are required for postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Redis.Enabled && len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis.addresses is required when redis is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.IncidentTopic == "") {
		return fmt.Errorf("kafka.brokers and kafka.incident_topic are required when kafka is enabled")
	}
	if c.Vault.Enabled && (c.Vault.Address == "" || c.Vault.PepperPath == "") {
		return fmt.Errorf("vault.address and vault.pepper_path are required when vault is enabled")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.RateLimit.NetworkSearchLimit <= 0 || c.RateLimit.NetworkSearchWindow <= 0 {
		return fmt.Errorf("rate_limit.network_search_limit and network_search_window must be positive")
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}
