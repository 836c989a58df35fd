package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// BusinessRepoImpl implements BusinessRepository.
type BusinessRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewBusinessRepository creates a business repository.
func NewBusinessRepository(db *gorm.DB, log logger.Logger) repository.BusinessRepository {
	return &BusinessRepoImpl{db: db, logger: log}
}

// Save registers a new business.
func (r *BusinessRepoImpl) Save(ctx context.Context, business *models.Business) error {
	now := time.Now().UTC()
	business.CreatedAt = now
	business.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(business).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return crnerrors.ErrConflict("business already exists").WithMetadata("business_id", business.ID)
		}
		r.logger.Error(ctx, "Failed to create business", err, logger.String("business_id", business.ID))
		return crnerrors.ErrStoreFailure("create business", err)
	}

	r.logger.Info(ctx, "Business created", logger.String("business_id", business.ID))
	return nil
}

// FindByID loads a business.
func (r *BusinessRepoImpl) FindByID(ctx context.Context, id string) (*models.Business, error) {
	var business models.Business
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&business).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crnerrors.ErrBusinessNotFound(id)
		}
		r.logger.Error(ctx, "Failed to load business", err, logger.String("business_id", id))
		return nil, crnerrors.ErrStoreFailure("find business", err)
	}
	return &business, nil
}

// List returns businesses ordered by creation time.
func (r *BusinessRepoImpl) List(ctx context.Context, limit, offset int) ([]*models.Business, error) {
	var out []*models.Business
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("list businesses", err)
	}
	return out, nil
}
