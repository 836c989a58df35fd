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

// CustomerRepoImpl implements CustomerRepository. Every query is scoped by tenant_id.
type CustomerRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewCustomerRepository creates a customer repository.
func NewCustomerRepository(db *gorm.DB, log logger.Logger) repository.CustomerRepository {
	return &CustomerRepoImpl{db: db, logger: log}
}

// Save persists a new customer.
func (r *CustomerRepoImpl) Save(ctx context.Context, customer *models.Customer) error {
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	customer.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		r.logger.Error(ctx, "Failed to create customer", err,
			logger.String("tenant_id", customer.TenantID),
			logger.String("customer_id", customer.ID),
		)
		return crnerrors.ErrStoreFailure("create customer", err)
	}
	return nil
}

// Update persists the editable fields of an existing customer.
func (r *CustomerRepoImpl) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND tenant_id = ?", customer.ID, customer.TenantID).
		Select("name", "phone", "email", "address", "city", "state", "county",
			"phone_normalized", "email_normalized", "updated_at").
		Updates(customer)
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to update customer", result.Error, logger.String("customer_id", customer.ID))
		return crnerrors.ErrStoreFailure("update customer", result.Error)
	}
	if result.RowsAffected == 0 {
		return crnerrors.ErrCustomerNotFound(customer.ID)
	}
	return nil
}

// FindByID loads one of the tenant's customers.
func (r *CustomerRepoImpl) FindByID(ctx context.Context, tenantID, customerID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crnerrors.ErrCustomerNotFound(customerID)
		}
		r.logger.Error(ctx, "Failed to load customer", err, logger.String("customer_id", customerID))
		return nil, crnerrors.ErrStoreFailure("find customer", err)
	}
	return &customer, nil
}

// FindByNormalizedPhone returns the tenant's customer with this phone, or nil.
func (r *CustomerRepoImpl) FindByNormalizedPhone(ctx context.Context, tenantID, phone string) (*models.Customer, error) {
	return r.findOne(ctx, "phone_normalized", tenantID, phone)
}

// FindByNormalizedEmail returns the tenant's customer with this email, or nil.
func (r *CustomerRepoImpl) FindByNormalizedEmail(ctx context.Context, tenantID, email string) (*models.Customer, error) {
	return r.findOne(ctx, "email_normalized", tenantID, email)
}

func (r *CustomerRepoImpl) findOne(ctx context.Context, column, tenantID, value string) (*models.Customer, error) {
	if value == "" {
		return nil, nil
	}
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND "+column+" = ?", tenantID, value).
		Order("created_at ASC").
		Take(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, crnerrors.ErrStoreFailure("find customer by "+column, err)
	}
	return &customer, nil
}

// List returns a page of the tenant's customers and the tenant's total count.
func (r *CustomerRepoImpl) List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Customer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, crnerrors.ErrStoreFailure("count customers", err)
	}

	var out []*models.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, crnerrors.ErrStoreFailure("list customers", err)
	}
	return out, total, nil
}

// ListIDs returns every customer id of the tenant.
func (r *CustomerRepoImpl) ListIDs(ctx context.Context, tenantID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("tenant_id = ?", tenantID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("list customer ids", err)
	}
	return ids, nil
}

// Delete removes the customer and its events in one transaction.
func (r *CustomerRepoImpl) Delete(ctx context.Context, tenantID, customerID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).Delete(&models.Event{}).Error; err != nil {
			return crnerrors.ErrStoreFailure("delete events", err)
		}
		result := tx.Where("id = ? AND tenant_id = ?", customerID, tenantID).Delete(&models.Customer{})
		if result.Error != nil {
			return crnerrors.ErrStoreFailure("delete customer", result.Error)
		}
		if result.RowsAffected == 0 {
			return crnerrors.ErrCustomerNotFound(customerID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info(ctx, "Customer deleted",
		logger.String("tenant_id", tenantID),
		logger.String("customer_id", customerID),
	)
	return nil
}
