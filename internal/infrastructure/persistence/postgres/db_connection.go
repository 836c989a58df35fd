// Package postgres implements the repositories of the Customer Reliability Network on gorm.
// PostgreSQL is the production dialect; SQLite backs local runs and tests.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/service"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// AllModels lists every table owned by the service, in migration order.
var AllModels = []interface{}{
	&models.Business{},
	&models.Customer{},
	&models.Event{},
	&models.NetworkIdentity{},
	&models.IncidentCategoryCount{},
	&models.IdentityReporter{},
	&models.PropertyRecord{},
	&models.PropertyCustomerLink{},
}

// DBConnection manages the gorm handle and its pool lifecycle.
type DBConnection struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

// NewDBConnection opens the configured dialect, tunes the pool and pings once.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	if cfg == nil {
		return nil, crnerrors.ErrInternal("database config is required")
	}
	log = log.WithComponent("database")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Error(ctx, "Failed to open database", err, logger.String("driver", cfg.Driver))
		return nil, crnerrors.ErrStoreFailure("open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("open database", err)
	}
	if cfg.Driver == "sqlite" {
		// One writer at a time; also keeps a shared in-memory database alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MinConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)
	}

	conn := &DBConnection{db: db, config: cfg, logger: log}
	if err := conn.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Info(ctx, "Database connection initialized",
		logger.String("driver", cfg.Driver),
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database),
		logger.Int("max_conns", cfg.MaxConns),
	)
	return conn, nil
}

// DB returns the gorm handle used by repositories.
func (c *DBConnection) DB() *gorm.DB {
	return c.db
}

// Migrate creates or updates every table.
func (c *DBConnection) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(AllModels...); err != nil {
		c.logger.Error(ctx, "Schema migration failed", err)
		return crnerrors.ErrStoreFailure("migrate schema", err)
	}
	c.logger.Info(ctx, "Schema migrated", logger.Int("tables", len(AllModels)))
	return nil
}

// Ping verifies the database is reachable.
func (c *DBConnection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return crnerrors.ErrStoreFailure("ping database", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		c.logger.Error(ctx, "Database ping failed", err)
		return crnerrors.ErrStoreFailure("ping database", err)
	}
	if latency := time.Since(start); latency > 100*time.Millisecond {
		c.logger.Warn(ctx, "High database latency detected", logger.Int64("latency_ms", latency.Milliseconds()))
	}
	return nil
}

// HealthCheck pings and reports pool statistics.
func (c *DBConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	sqlDB, _ := c.db.DB()
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"driver":           c.db.Dialector.Name(),
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}, nil
}

// Close shuts the pool down.
func (c *DBConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Info(context.Background(), "Closing database connection")
	return sqlDB.Close()
}

const queryStartKey = "crn:query_start"

// InstrumentQueries reports the duration of every statement to metrics, labeled
// by operation and table.
func (c *DBConnection) InstrumentQueries(metrics service.Metrics) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				metrics.RecordDBQuery(fmt.Sprintf("%s:%s", op, tx.Statement.Table), time.Since(start))
			}
		}
	}

	cb := c.db.Callback()
	regs := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(n+"_before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(n+"_after", a)
		}},
		{"query", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(n+"_before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(n+"_after", a)
		}},
		{"update", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(n+"_before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(n+"_after", a)
		}},
		{"delete", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(n+"_before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(n+"_after", a)
		}},
		{"row", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register(n+"_before", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register(n+"_after", a)
		}},
	}
	for _, r := range regs {
		if err := r.register("crn:metrics_"+r.op, before, after(r.op)); err != nil {
			return err
		}
	}
	return nil
}

// isPostgres reports whether row locks should be requested explicitly.
func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
