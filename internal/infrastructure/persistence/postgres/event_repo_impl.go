package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// EventRepoImpl implements the append-only EventRepository.
type EventRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewEventRepository creates an event repository.
func NewEventRepository(db *gorm.DB, log logger.Logger) repository.EventRepository {
	return &EventRepoImpl{db: db, logger: log}
}

// Append persists a new event.
func (r *EventRepoImpl) Append(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.logger.Error(ctx, "Failed to append event", err,
			logger.String("customer_id", event.CustomerID),
			logger.Int("severity", event.Severity),
		)
		return crnerrors.ErrStoreFailure("append event", err)
	}
	return nil
}

// ListByCustomer returns the customer's events oldest first.
func (r *EventRepoImpl) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*models.Event, error) {
	var out []*models.Event
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("list customer events", err)
	}
	return out, nil
}

// ListByTenant returns all of the tenant's events oldest first.
func (r *EventRepoImpl) ListByTenant(ctx context.Context, tenantID string) ([]*models.Event, error) {
	var out []*models.Event
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("list tenant events", err)
	}
	return out, nil
}
