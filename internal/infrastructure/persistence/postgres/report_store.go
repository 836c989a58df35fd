package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/domain/models"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// CategoryTotal is the network-wide count for one incident category.
type CategoryTotal struct {
	Category   string `json:"category"`
	Count      int64  `json:"count"`
	Identities int64  `json:"identities"`
}

// ReportStore runs read-only aggregate queries for operator reports directly on a
// pgx pool, bypassing the ORM.
type ReportStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewReportStore opens a small pgx pool against the configured database.
func NewReportStore(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*ReportStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetURL())
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("parse database url", err)
	}
	poolConfig.MaxConns = 2
	poolConfig.MaxConnIdleTime = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("connect report pool", err)
	}
	return &ReportStore{pool: pool, logger: log.WithComponent("report_store")}, nil
}

// TierDistribution counts identities per risk tier, including empty tiers.
func (s *ReportStore) TierDistribution(ctx context.Context) ([]models.TierCount, error) {
	const query = `
		SELECT risk_tier, COUNT(*)
		FROM network_identities
		GROUP BY risk_tier
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		s.logger.Error(ctx, "Tier distribution query failed", err)
		return nil, crnerrors.ErrStoreFailure("tier distribution", err)
	}
	defer rows.Close()

	var counts []models.TierCount
	for rows.Next() {
		var tier string
		var n int64
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, crnerrors.ErrStoreFailure("scan tier row", err)
		}
		counts = append(counts, models.TierCount{Tier: models.RiskTier(tier), Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, crnerrors.ErrStoreFailure("tier distribution", err)
	}
	return fillTiers(counts), nil
}

// TopCategories returns the most reported incident categories across the network.
func (s *ReportStore) TopCategories(ctx context.Context, limit int) ([]CategoryTotal, error) {
	const query = `
		SELECT category, SUM(count) AS total, COUNT(DISTINCT identity_id)
		FROM incident_category_counts
		WHERE count > 0
		GROUP BY category
		ORDER BY total DESC, category ASC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		s.logger.Error(ctx, "Category totals query failed", err)
		return nil, crnerrors.ErrStoreFailure("category totals", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Category, &c.Count, &c.Identities); err != nil {
			return nil, crnerrors.ErrStoreFailure("scan category row", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *ReportStore) Close() {
	s.pool.Close()
}
