package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
	"github.com/turtacn/crn/pkg/utils"
)

// BusinessAppService manages tenants.
type BusinessAppService interface {
	CreateBusiness(ctx context.Context, req *dto.CreateBusinessRequest) (*models.Business, error)
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	ListBusinesses(ctx context.Context, page, pageSize int) ([]*models.Business, error)

	// Exists reports whether the tenant is registered. Positive answers are cached
	// for the configured TTL.
	Exists(ctx context.Context, id string) (bool, error)
}

type businessAppServiceImpl struct {
	businesses repository.BusinessRepository
	known      *gocache.Cache
	clock      repository.Clock
	logger     logger.Logger
}

// NewBusinessAppService creates a BusinessAppService. A ttl of zero disables the cache.
func NewBusinessAppService(businesses repository.BusinessRepository, ttl time.Duration, clock repository.Clock, log logger.Logger) BusinessAppService {
	if clock == nil {
		clock = domainservice.SystemClock{}
	}
	s := &businessAppServiceImpl{
		businesses: businesses,
		clock:      clock,
		logger:     log.WithComponent("business_service"),
	}
	if ttl > 0 {
		s.known = gocache.New(ttl, 2*ttl)
	}
	return s
}

func (s *businessAppServiceImpl) CreateBusiness(ctx context.Context, req *dto.CreateBusinessRequest) (*models.Business, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.clock.Now()
	business := &models.Business{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.businesses.Save(ctx, business); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "business registered", logger.String("business_id", business.ID))
	return business, nil
}

func (s *businessAppServiceImpl) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	if !utils.ValidateUUID(id) {
		return nil, errors.ErrInvalidParameterFormat("business_id", "uuid")
	}
	return s.businesses.FindByID(ctx, id)
}

func (s *businessAppServiceImpl) ListBusinesses(ctx context.Context, page, pageSize int) ([]*models.Business, error) {
	pageSize = utils.ClampPageSize(pageSize, constants.DefaultPageSize, constants.MaxPageSize)
	if page < 1 {
		page = 1
	}
	return s.businesses.List(ctx, pageSize, (page-1)*pageSize)
}

func (s *businessAppServiceImpl) Exists(ctx context.Context, id string) (bool, error) {
	if s.known != nil {
		if _, ok := s.known.Get(id); ok {
			return true, nil
		}
	}
	if _, err := s.businesses.FindByID(ctx, id); err != nil {
		if errors.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	if s.known != nil {
		s.known.SetDefault(id, struct{}{})
	}
	return true, nil
}
