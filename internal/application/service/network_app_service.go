package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
	"github.com/turtacn/crn/pkg/utils"
)

// NetworkSearchLimits bounds how fast one tenant may probe the network.
type NetworkSearchLimits struct {
	Limit  int
	Window time.Duration
}

// NetworkAppService reads the shared network.
type NetworkAppService interface {
	// SearchNetwork looks up phone and email by exact hash and addresses by substring
	// over public property records. A miss returns Found=false, not an error.
	SearchNetwork(ctx context.Context, tenantID string, req *dto.NetworkSearchRequest) (*dto.NetworkSearchResponse, error)

	// GetIdentity returns an identity with its incident breakdown.
	GetIdentity(ctx context.Context, identityID string) (*dto.NetworkIdentityDTO, error)
}

type networkAppServiceImpl struct {
	identities repository.NetworkIdentityRepository
	properties repository.PropertyRepository
	resolver   *domainservice.IdentityResolver
	hasher     *domainservice.Hasher
	cache      domainservice.IdentityCache
	limiter    domainservice.RateLimiter
	limits     NetworkSearchLimits
	scoring    *domainservice.ScoringProvider
	metrics    domainservice.Metrics
	logger     logger.Logger
}

// NewNetworkAppService creates a NetworkAppService. cache and limiter may be nil.
func NewNetworkAppService(
	identities repository.NetworkIdentityRepository,
	properties repository.PropertyRepository,
	resolver *domainservice.IdentityResolver,
	hasher *domainservice.Hasher,
	cache domainservice.IdentityCache,
	limiter domainservice.RateLimiter,
	limits NetworkSearchLimits,
	scoring *domainservice.ScoringProvider,
	metrics domainservice.Metrics,
	log logger.Logger,
) NetworkAppService {
	if cache == nil {
		cache = domainservice.PassthroughCache{}
	}
	if metrics == nil {
		metrics = domainservice.NoopMetrics{}
	}
	return &networkAppServiceImpl{
		identities: identities,
		properties: properties,
		resolver:   resolver,
		hasher:     hasher,
		cache:      cache,
		limiter:    limiter,
		limits:     limits,
		scoring:    scoring,
		metrics:    metrics,
		logger:     log.WithComponent("network_service"),
	}
}

func (s *networkAppServiceImpl) SearchNetwork(ctx context.Context, tenantID string, req *dto.NetworkSearchRequest) (*dto.NetworkSearchResponse, error) {
	ctx, span := tracer.Start(ctx, "NetworkAppService.SearchNetwork")
	defer span.End()
	span.SetAttributes(attribute.String("crn.search.kind", req.Kind))

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkRateLimit(ctx, tenantID); err != nil {
		return nil, err
	}

	kind := models.HashKind(req.Kind)
	if kind == models.HashKindAddress {
		return s.searchAddress(ctx, req.Value)
	}

	var hash string
	switch kind {
	case models.HashKindPhone:
		if n := len(domainservice.NormalizePhone(req.Value)); n < minPhoneDigits || n > maxPhoneDigits {
			return nil, errors.ErrInvalidParameterFormat("value", "7 to 15 digits")
		}
		hash = s.hasher.HashPhone(req.Value)
	case models.HashKindEmail:
		if !utils.ValidateEmail(strings.TrimSpace(req.Value)) {
			return nil, errors.ErrInvalidParameterFormat("value", "an email address")
		}
		hash = s.hasher.HashEmail(req.Value)
	}

	identity, err := s.cache.GetOrLoad(ctx, kind, hash, func(ctx context.Context) (*models.NetworkIdentity, error) {
		return s.identities.FindByHash(ctx, kind, hash)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordNetworkSearch(req.Kind, identity != nil)

	resp := &dto.NetworkSearchResponse{Kind: req.Kind}
	if identity == nil {
		s.logger.Debug(ctx, "network search miss", logger.String("kind", req.Kind), logger.HashPrefix("lookup_hash", hash))
		return resp, nil
	}
	breakdown, err := s.resolver.IncidentBreakdown(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	resp.Found = true
	resp.Identity = dto.NewNetworkIdentityDTO(identity, breakdown)
	return resp, nil
}

func (s *networkAppServiceImpl) searchAddress(ctx context.Context, raw string) (*dto.NetworkSearchResponse, error) {
	pattern := domainservice.NormalizeAddress(domainservice.StreetLine(raw))
	if pattern == "" {
		return nil, errors.ErrInvalidParameterFormat("value", "a street address")
	}
	records, err := s.properties.SearchByAddress(ctx, pattern, s.scoring.Get().CandidateLimit)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordNetworkSearch(string(models.HashKindAddress), len(records) > 0)
	return &dto.NetworkSearchResponse{
		Kind:       string(models.HashKindAddress),
		Found:      len(records) > 0,
		Properties: records,
	}, nil
}

func (s *networkAppServiceImpl) checkRateLimit(ctx context.Context, tenantID string) error {
	if s.limiter == nil || s.limits.Limit <= 0 {
		return nil
	}
	scope := string(constants.RateLimitScopeNetworkSearch)
	allowed, _, resetAt, err := s.limiter.Allow(ctx, scope, tenantID, s.limits.Limit, s.limits.Window)
	if err != nil {
		// Limiter outages fail open.
		s.logger.Warn(ctx, "rate limiter unavailable", logger.Error(err))
		return nil
	}
	if !allowed {
		s.metrics.RecordRateLimitHit(scope)
		return errors.ErrRateLimitExceeded(scope, s.limits.Limit).WithMetadata("reset_at", resetAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func (s *networkAppServiceImpl) GetIdentity(ctx context.Context, identityID string) (*dto.NetworkIdentityDTO, error) {
	if !utils.ValidateUUID(identityID) {
		return nil, errors.ErrInvalidParameterFormat("id", "uuid")
	}
	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.resolver.IncidentBreakdown(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewNetworkIdentityDTO(identity, breakdown), nil
}
