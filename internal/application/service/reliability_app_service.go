package service

import (
	"context"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/logger"
)

// ReliabilityAppService computes tenant-local reliability profiles.
type ReliabilityAppService interface {
	// GetReliabilityProfile scores a customer from the tenant's own events only.
	// The percentile is taken against the tenant's other customers.
	GetReliabilityProfile(ctx context.Context, tenantID, customerID string) (*models.ReliabilityProfile, error)
}

type reliabilityAppServiceImpl struct {
	customers repository.CustomerRepository
	events    repository.EventRepository
	scoring   *domainservice.ScoringProvider
	logger    logger.Logger
}

// NewReliabilityAppService creates a ReliabilityAppService.
func NewReliabilityAppService(
	customers repository.CustomerRepository,
	events repository.EventRepository,
	scoring *domainservice.ScoringProvider,
	log logger.Logger,
) ReliabilityAppService {
	return &reliabilityAppServiceImpl{
		customers: customers,
		events:    events,
		scoring:   scoring,
		logger:    log.WithComponent("reliability_service"),
	}
}

func (s *reliabilityAppServiceImpl) GetReliabilityProfile(ctx context.Context, tenantID, customerID string) (*models.ReliabilityProfile, error) {
	ctx, span := tracer.Start(ctx, "ReliabilityAppService.GetReliabilityProfile")
	defer span.End()

	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByCustomer(ctx, tenantID, customer.ID)
	if err != nil {
		return nil, err
	}

	ids, err := s.customers.ListIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tenantEvents, err := s.events.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// One scorer per request so a config reload never splits a profile.
	scorer := domainservice.NewReliabilityScorer(s.scoring.Get())
	peers := make([]int, 0, len(ids))
	for id, score := range scorer.ScoresByCustomer(ids, tenantEvents) {
		if id == customer.ID {
			continue
		}
		peers = append(peers, score)
	}

	profile := scorer.Profile(customer.ID, events, peers)
	s.logger.Debug(ctx, "reliability profile computed",
		logger.String("customer_id", customer.ID),
		logger.Int("score", profile.Score),
		logger.Int("peers", len(peers)),
	)
	return profile, nil
}
