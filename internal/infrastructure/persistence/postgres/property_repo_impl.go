package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	"github.com/turtacn/crn/internal/domain/service"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

const upsertBatchSize = 200

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching every term, in order, as substrings.
func containsPattern(terms ...string) string {
	var b strings.Builder
	b.WriteString("%")
	for _, t := range terms {
		if t == "" {
			continue
		}
		b.WriteString(likeEscaper.Replace(t))
		b.WriteString("%")
	}
	return b.String()
}

// tokenPattern matches pattern as a whole run of tokens inside a space-padded column.
func tokenPattern(pattern string) string {
	return "% " + likeEscaper.Replace(pattern) + " %"
}

// PropertyRepoImpl implements PropertyRepository.
type PropertyRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewPropertyRepository creates a property repository.
func NewPropertyRepository(db *gorm.DB, log logger.Logger) repository.PropertyRepository {
	return &PropertyRepoImpl{db: db, logger: log}
}

// Upsert inserts records or refreshes them by parcel id. Normalized search columns
// are derived here when the caller left them empty.
func (r *PropertyRepoImpl) Upsert(ctx context.Context, records []*models.PropertyRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.OwnerNameNormalized == "" {
			rec.OwnerNameNormalized = service.NormalizeName(rec.OwnerName)
		}
		if rec.AddressNormalized == "" {
			rec.AddressNormalized = service.NormalizeAddress(rec.Address)
		}
		rec.BusinessOwned = service.IsBusinessEntity(rec.OwnerName)
		if rec.PropertyClass != "" {
			rec.PropertyClass = strings.ToLower(rec.PropertyClass)
		}
		rec.UpdatedAt = now
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "parcel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"owner_name", "owner_name_normalized", "business_owned", "address", "address_normalized",
				"municipality", "county", "state", "zip", "property_class",
				"assessed_value", "year_built", "updated_at",
			}),
		}).
		CreateInBatches(records, upsertBatchSize)
	if result.Error != nil {
		r.logger.Error(ctx, "Property upsert failed", result.Error, logger.Int("records", len(records)))
		return 0, crnerrors.ErrStoreFailure("upsert properties", result.Error)
	}
	return int(result.RowsAffected), nil
}

// FindByID loads a property record.
func (r *PropertyRepoImpl) FindByID(ctx context.Context, id string) (*models.PropertyRecord, error) {
	var rec models.PropertyRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crnerrors.ErrPropertyNotFound(id)
		}
		return nil, crnerrors.ErrStoreFailure("find property", err)
	}
	return &rec, nil
}

// SearchByAddress matches pattern as whole tokens of the normalized address, so
// "12 main st" finds "12 main st springfield" but never "112 main st".
func (r *PropertyRepoImpl) SearchByAddress(ctx context.Context, pattern string, limit int) ([]*models.PropertyRecord, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	var out []*models.PropertyRecord
	err := r.db.WithContext(ctx).
		Where(`(' ' || address_normalized || ' ') LIKE ? ESCAPE '\'`, tokenPattern(strings.ToLower(pattern))).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("search properties by address", err)
	}
	return out, nil
}

// SearchByOwner matches residential owner names containing terms in order.
func (r *PropertyRepoImpl) SearchByOwner(ctx context.Context, terms []string, county string, limit int) ([]*models.PropertyRecord, error) {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	q := r.db.WithContext(ctx).
		Where(`owner_name_normalized LIKE ? ESCAPE '\'`, containsPattern(lowered...)).
		Where("property_class = ?", models.PropertyClassResidential)
	if county != "" {
		q = q.Where("LOWER(county) = ?", strings.ToLower(county))
	}

	var out []*models.PropertyRecord
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, crnerrors.ErrStoreFailure("search properties by owner", err)
	}
	return out, nil
}

// ListUnlinkedResidential returns residential, individually owned records with no identity link.
func (r *PropertyRepoImpl) ListUnlinkedResidential(ctx context.Context, filter models.PropertyFilter, limit int) ([]*models.PropertyRecord, error) {
	q := r.db.WithContext(ctx).
		Where("property_class = ?", models.PropertyClassResidential).
		Where("business_owned = ?", false).
		Where("NOT EXISTS (SELECT 1 FROM property_customer_links l WHERE l.property_id = property_records.id)")
	if filter.AfterID != "" {
		q = q.Where("id > ?", filter.AfterID)
	}
	if filter.County != "" {
		q = q.Where("LOWER(county) = ?", strings.ToLower(filter.County))
	}
	if filter.Municipality != "" {
		q = q.Where("LOWER(municipality) = ?", strings.ToLower(filter.Municipality))
	}
	if filter.State != "" {
		q = q.Where("LOWER(state) = ?", strings.ToLower(filter.State))
	}

	var out []*models.PropertyRecord
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, crnerrors.ErrStoreFailure("list unlinked properties", err)
	}
	return out, nil
}

// LinkExists reports whether the pair is already linked.
func (r *PropertyRepoImpl) LinkExists(ctx context.Context, propertyID, identityID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.PropertyCustomerLink{}).
		Where("property_id = ? AND identity_id = ?", propertyID, identityID).
		Count(&n).Error
	if err != nil {
		return false, crnerrors.ErrStoreFailure("check property link", err)
	}
	return n > 0, nil
}

// HasAnyLink reports whether the property is linked to any identity.
func (r *PropertyRepoImpl) HasAnyLink(ctx context.Context, propertyID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.PropertyCustomerLink{}).
		Where("property_id = ?", propertyID).
		Count(&n).Error
	if err != nil {
		return false, crnerrors.ErrStoreFailure("check property links", err)
	}
	return n > 0, nil
}

// CreateLink inserts the link once per (property, identity) pair.
func (r *PropertyRepoImpl) CreateLink(ctx context.Context, link *models.PropertyCustomerLink) (bool, error) {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link)
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to create property link", result.Error,
			logger.String("property_id", link.PropertyID),
			logger.String("identity_id", link.IdentityID),
		)
		return false, crnerrors.ErrStoreFailure("create property link", result.Error)
	}
	return result.RowsAffected > 0, nil
}
