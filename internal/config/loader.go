package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/turtacn/crn/internal/domain/service"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// EnvPrefix is prepended to every environment override, e.g. CRN_DATABASE_HOST.
const EnvPrefix = "CRN"

// Loader reads configuration from file and environment and can watch the file for
// scoring changes.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
}

// NewLoader creates a loader. configFile may be empty to search the default paths.
func NewLoader(log logger.Logger, configFile string) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/crn/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log}
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(log logger.Logger) (*Config, error) {
	return NewLoader(log, "").Load()
}

// Load reads the config file when present, applies environment overrides and validates.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, crnerrors.ErrInternal("failed to read config file").WithCause(err)
		}
		l.log.Info(context.Background(), "no config file found, using defaults and environment")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, crnerrors.ErrInternal("failed to unmarshal config").WithCause(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, crnerrors.ErrValidation(err.Error()).WithCause(err)
	}

	return &cfg, nil
}

// WatchScoring reloads the scoring section whenever the config file changes. An
// invalid edit is logged and the previous snapshot stays active.
func (l *Loader) WatchScoring(provider *service.ScoringProvider) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		ctx := context.Background()
		var next service.ScoringConfig
		if err := l.v.UnmarshalKey("scoring", &next); err != nil {
			l.log.Error(ctx, "failed to decode scoring config", err, logger.String("file", e.Name))
			return
		}
		if err := provider.Replace(next); err != nil {
			l.log.Error(ctx, "rejected scoring config change", err, logger.String("file", e.Name))
			return
		}
		l.log.Info(ctx, "scoring config reloaded", logger.String("file", e.Name))
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.shutdown_timeout", 20)
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "crn")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "crn")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30)
	v.SetDefault("database.max_conn_idle_time", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.identity_cache_ttl", 5*time.Minute)
	v.SetDefault("redis.local_cache_ttl", 30*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.incident_topic", "crn.network.incidents")
	v.SetDefault("kafka.consumer_group", "crn-cache-invalidator")
	v.SetDefault("kafka.write_timeout", 5*time.Second)
	v.SetDefault("kafka.batch_timeout", 50*time.Millisecond)
	v.SetDefault("kafka.signing_key", "")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.pepper_path", "crn/privacy")
	v.SetDefault("vault.pepper_key", "pepper")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "crn")
	v.SetDefault("auth.business_cache_ttl", time.Minute)

	v.SetDefault("rate_limit.network_search_limit", 60)
	v.SetDefault("rate_limit.network_search_window", time.Minute)
	v.SetDefault("rate_limit.tenant_rpm", 600)

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	v.SetDefault("privacy.pepper", "")

	sc := service.DefaultScoringConfig()
	v.SetDefault("scoring.base_score", sc.BaseScore)
	v.SetDefault("scoring.severity_deductions", sc.SeverityDeductions)
	v.SetDefault("scoring.low_risk_min_score", sc.LowRiskMinScore)
	v.SetDefault("scoring.medium_risk_min_score", sc.MediumRiskMinScore)
	v.SetDefault("scoring.trend_window", sc.TrendWindow)
	v.SetDefault("scoring.severity_weight_multipliers", sc.SeverityWeightMultipliers)
	v.SetDefault("scoring.negative_severity_min", sc.NegativeSeverityMin)
	v.SetDefault("scoring.positive_decay", sc.PositiveDecay)
	v.SetDefault("scoring.tier_critical_min", sc.TierCriticalMin)
	v.SetDefault("scoring.tier_high_min", sc.TierHighMin)
	v.SetDefault("scoring.tier_medium_min", sc.TierMediumMin)
	v.SetDefault("scoring.address_base_confidence", sc.AddressBaseConfidence)
	v.SetDefault("scoring.address_city_confidence", sc.AddressCityConfidence)
	v.SetDefault("scoring.address_county_confidence", sc.AddressCountyConfidence)
	v.SetDefault("scoring.name_base_confidence", sc.NameBaseConfidence)
	v.SetDefault("scoring.name_city_bonus", sc.NameCityBonus)
	v.SetDefault("scoring.name_county_bonus", sc.NameCountyBonus)
	v.SetDefault("scoring.definitive_threshold", sc.DefinitiveThreshold)
	v.SetDefault("scoring.candidate_limit", sc.CandidateLimit)

	v.SetDefault("jobs.sync_batch_size", 200)
	v.SetDefault("jobs.streak_batch_size", 500)
	v.SetDefault("jobs.streak_interval", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", "crn")
	v.SetDefault("tracing.sample_ratio", 1.0)
}
