package service

import (
	"context"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/logger"
	"github.com/turtacn/crn/pkg/utils"
)

const defaultStreakBatch = 500

// MaintenanceAppService runs operator jobs against the shared network store.
type MaintenanceAppService interface {
	// RunCleanStreakJob recomputes clean streak months for every identity.
	RunCleanStreakJob(ctx context.Context, batchSize int) (*dto.CleanStreakResult, error)

	// MergeIdentities folds one identity into another and evicts both from the cache.
	MergeIdentities(ctx context.Context, req *dto.MergeIdentitiesRequest) (*dto.NetworkIdentityDTO, error)

	// TierReport returns the risk tier distribution and refreshes the tier gauge.
	TierReport(ctx context.Context) (*dto.TierReport, error)
}

type maintenanceAppServiceImpl struct {
	identities repository.NetworkIdentityRepository
	resolver   *domainservice.IdentityResolver
	network    *NetworkWriter
	metrics    domainservice.Metrics
	logger     logger.Logger
}

// NewMaintenanceAppService creates a MaintenanceAppService.
func NewMaintenanceAppService(
	identities repository.NetworkIdentityRepository,
	resolver *domainservice.IdentityResolver,
	network *NetworkWriter,
	metrics domainservice.Metrics,
	log logger.Logger,
) MaintenanceAppService {
	if metrics == nil {
		metrics = domainservice.NoopMetrics{}
	}
	return &maintenanceAppServiceImpl{
		identities: identities,
		resolver:   resolver,
		network:    network,
		metrics:    metrics,
		logger:     log.WithComponent("maintenance_service"),
	}
}

func (s *maintenanceAppServiceImpl) RunCleanStreakJob(ctx context.Context, batchSize int) (*dto.CleanStreakResult, error) {
	ctx, span := tracer.Start(ctx, "MaintenanceAppService.RunCleanStreakJob")
	defer span.End()

	if batchSize <= 0 {
		batchSize = defaultStreakBatch
	}
	scanned, updated, err := s.resolver.RecomputeCleanStreaks(ctx, batchSize)
	if err != nil {
		return nil, err
	}
	if _, err := s.TierReport(ctx); err != nil {
		s.logger.Warn(ctx, "tier gauge refresh failed", logger.Error(err))
	}
	return &dto.CleanStreakResult{Scanned: scanned, Updated: updated}, nil
}

func (s *maintenanceAppServiceImpl) MergeIdentities(ctx context.Context, req *dto.MergeIdentitiesRequest) (*dto.NetworkIdentityDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	merged, staleKeys, err := s.resolver.MergeIdentities(ctx, req.KeepID, req.AbsorbID)
	if err != nil {
		return nil, err
	}
	s.network.Invalidate(ctx, staleKeys)

	breakdown, err := s.resolver.IncidentBreakdown(ctx, merged.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewNetworkIdentityDTO(merged, breakdown), nil
}

func (s *maintenanceAppServiceImpl) TierReport(ctx context.Context) (*dto.TierReport, error) {
	tiers, err := s.identities.CountByTier(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetTierDistribution(tiers)

	report := &dto.TierReport{Tiers: tiers}
	for _, t := range tiers {
		report.Total += t.Count
	}
	return report, nil
}
