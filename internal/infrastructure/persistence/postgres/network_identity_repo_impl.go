package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

var hashColumns = map[models.HashKind]string{
	models.HashKindPhone:   "phone_hash",
	models.HashKindEmail:   "email_hash",
	models.HashKindAddress: "address_hash",
}

// aggregateColumns are the counters written by Mutate and Merge.
var aggregateColumns = []string{
	"weighted_score", "total_incidents", "total_positive_events", "clean_streak_months",
	"risk_tier", "last_incident_at", "last_seen_at", "updated_at",
}

// NetworkIdentityRepoImpl implements NetworkIdentityRepository. It never touches
// tenant tables.
type NetworkIdentityRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewNetworkIdentityRepository creates the shared identity repository.
func NewNetworkIdentityRepository(db *gorm.DB, log logger.Logger) repository.NetworkIdentityRepository {
	return &NetworkIdentityRepoImpl{db: db, logger: log}
}

// FindByHash returns the identity holding hash under kind, or nil.
func (r *NetworkIdentityRepoImpl) FindByHash(ctx context.Context, kind models.HashKind, hash string) (*models.NetworkIdentity, error) {
	column, ok := hashColumns[kind]
	if !ok || hash == "" {
		return nil, nil
	}
	var identity models.NetworkIdentity
	err := r.db.WithContext(ctx).Where(column+" = ?", hash).Take(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error(ctx, "Identity lookup failed", err, logger.String("hash_kind", string(kind)))
		return nil, crnerrors.ErrStoreFailure("find identity by hash", err)
	}
	return &identity, nil
}

// FindByID loads an identity.
func (r *NetworkIdentityRepoImpl) FindByID(ctx context.Context, id string) (*models.NetworkIdentity, error) {
	return findIdentity(r.db.WithContext(ctx), id, false)
}

func findIdentity(tx *gorm.DB, id string, lock bool) (*models.NetworkIdentity, error) {
	if lock && isPostgres(tx) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var identity models.NetworkIdentity
	if err := tx.Where("id = ?", id).Take(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crnerrors.ErrIdentityNotFound(id)
		}
		return nil, crnerrors.ErrStoreFailure("find identity", err)
	}
	return &identity, nil
}

// Create inserts identity, and its first reporter when reporterKey is set, unless a
// unique hash is already taken.
func (r *NetworkIdentityRepoImpl) Create(ctx context.Context, identity *models.NetworkIdentity, reporterKey string) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(identity)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true
		if reporterKey == "" {
			return nil
		}
		return tx.Create(&models.IdentityReporter{IdentityID: identity.ID, ReporterKey: reporterKey}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		r.logger.Error(ctx, "Failed to create identity", err)
		return false, crnerrors.ErrStoreFailure("create identity", err)
	}
	return created, nil
}

// SaveFacts persists hashes, fragments, source and last_seen_at.
func (r *NetworkIdentityRepoImpl) SaveFacts(ctx context.Context, identity *models.NetworkIdentity) error {
	identity.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.NetworkIdentity{}).
		Where("id = ?", identity.ID).
		Select("phone_hash", "email_hash", "address_hash", "phone_last4", "email_domain",
			"address_fragment", "source", "last_seen_at", "updated_at").
		Updates(identity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return repository.ErrHashConflict
		}
		r.logger.Error(ctx, "Failed to save identity facts", result.Error, logger.String("identity_id", identity.ID))
		return crnerrors.ErrStoreFailure("save identity facts", result.Error)
	}
	if result.RowsAffected == 0 {
		return crnerrors.ErrIdentityNotFound(identity.ID)
	}
	return nil
}

// RegisterReporter records a distinct reporting tenant and bumps seen_by_business_count.
func (r *NetworkIdentityRepoImpl) RegisterReporter(ctx context.Context, identityID, reporterKey string) (bool, error) {
	var isNew bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.IdentityReporter{
			IdentityID:  identityID,
			ReporterKey: reporterKey,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		isNew = true
		return tx.Model(&models.NetworkIdentity{}).
			Where("id = ?", identityID).
			Update("seen_by_business_count", gorm.Expr("seen_by_business_count + 1")).Error
	})
	if err != nil {
		return false, crnerrors.ErrStoreFailure("register reporter", err)
	}
	return isNew, nil
}

// Mutate locks the row, applies fn and persists counters and category deltas atomically.
func (r *NetworkIdentityRepoImpl) Mutate(ctx context.Context, id string, fn repository.IdentityMutation) (*models.NetworkIdentity, error) {
	var updated *models.NetworkIdentity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := findIdentity(tx, id, true)
		if err != nil {
			return err
		}
		deltas, err := fn(identity)
		if err != nil {
			return err
		}
		identity.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&models.NetworkIdentity{}).Where("id = ?", id).Select(aggregateColumns).Updates(identity).Error; err != nil {
			return crnerrors.ErrStoreFailure("update identity", err)
		}
		for category, delta := range deltas {
			if err := addCategoryCount(tx, id, category, delta); err != nil {
				return err
			}
		}
		updated = identity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func addCategoryCount(tx *gorm.DB, identityID, category string, delta int) error {
	now := time.Now().UTC()
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identity_id"}, {Name: "category"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("incident_category_counts.count + ?", delta),
			"updated_at": now,
		}),
	}).Create(&models.IncidentCategoryCount{
		IdentityID: identityID,
		Category:   category,
		Count:      delta,
		UpdatedAt:  now,
	}).Error
	if err != nil {
		return crnerrors.ErrStoreFailure("update category count", err)
	}
	return nil
}

// CategoryCounts returns the identity's non-zero category counts.
func (r *NetworkIdentityRepoImpl) CategoryCounts(ctx context.Context, id string) ([]*models.IncidentCategoryCount, error) {
	var out []*models.IncidentCategoryCount
	err := r.db.WithContext(ctx).
		Where("identity_id = ? AND count > 0", id).
		Order("category ASC").
		Find(&out).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("list category counts", err)
	}
	return out, nil
}

// ListPage returns identities ordered by id after the cursor.
func (r *NetworkIdentityRepoImpl) ListPage(ctx context.Context, afterID string, limit int) ([]*models.NetworkIdentity, error) {
	var out []*models.NetworkIdentity
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("list identities", err)
	}
	return out, nil
}

// UpdateCleanStreak sets clean_streak_months.
func (r *NetworkIdentityRepoImpl) UpdateCleanStreak(ctx context.Context, id string, months int) error {
	result := r.db.WithContext(ctx).
		Model(&models.NetworkIdentity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"clean_streak_months": months, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return crnerrors.ErrStoreFailure("update clean streak", result.Error)
	}
	if result.RowsAffected == 0 {
		return crnerrors.ErrIdentityNotFound(id)
	}
	return nil
}

// Merge folds absorb into keep. absorb is deleted before keep takes over its hashes so
// the unique indexes hold throughout.
func (r *NetworkIdentityRepoImpl) Merge(ctx context.Context, keepID, absorbID string, fn func(keep, absorb *models.NetworkIdentity) error) (*models.NetworkIdentity, error) {
	var merged *models.NetworkIdentity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep, err := findIdentity(tx, keepID, true)
		if err != nil {
			return err
		}
		absorb, err := findIdentity(tx, absorbID, true)
		if err != nil {
			return err
		}
		if err := fn(keep, absorb); err != nil {
			return err
		}

		var counts []*models.IncidentCategoryCount
		if err := tx.Where("identity_id = ?", absorbID).Find(&counts).Error; err != nil {
			return crnerrors.ErrStoreFailure("load category counts", err)
		}
		for _, c := range counts {
			if err := addCategoryCount(tx, keepID, c.Category, c.Count); err != nil {
				return err
			}
		}
		if err := tx.Where("identity_id = ?", absorbID).Delete(&models.IncidentCategoryCount{}).Error; err != nil {
			return crnerrors.ErrStoreFailure("delete category counts", err)
		}

		var reporters []*models.IdentityReporter
		if err := tx.Where("identity_id = ?", absorbID).Find(&reporters).Error; err != nil {
			return crnerrors.ErrStoreFailure("load reporters", err)
		}
		for _, rep := range reporters {
			moved := &models.IdentityReporter{IdentityID: keepID, ReporterKey: rep.ReporterKey, CreatedAt: rep.CreatedAt}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(moved).Error; err != nil {
				return crnerrors.ErrStoreFailure("move reporter", err)
			}
		}
		if err := tx.Where("identity_id = ?", absorbID).Delete(&models.IdentityReporter{}).Error; err != nil {
			return crnerrors.ErrStoreFailure("delete reporters", err)
		}

		keptProperties := tx.Model(&models.PropertyCustomerLink{}).Select("property_id").Where("identity_id = ?", keepID)
		if err := tx.Model(&models.PropertyCustomerLink{}).
			Where("identity_id = ? AND property_id NOT IN (?)", absorbID, keptProperties).
			Update("identity_id", keepID).Error; err != nil {
			return crnerrors.ErrStoreFailure("move property links", err)
		}
		if err := tx.Where("identity_id = ?", absorbID).Delete(&models.PropertyCustomerLink{}).Error; err != nil {
			return crnerrors.ErrStoreFailure("delete property links", err)
		}

		if err := tx.Where("id = ?", absorbID).Delete(&models.NetworkIdentity{}).Error; err != nil {
			return crnerrors.ErrStoreFailure("delete absorbed identity", err)
		}

		var seen int64
		if err := tx.Model(&models.IdentityReporter{}).Where("identity_id = ?", keepID).Count(&seen).Error; err != nil {
			return crnerrors.ErrStoreFailure("count reporters", err)
		}
		// Identities created without a reporter still count as seen once.
		keep.SeenByBusinessCount = max(int(seen), 1)
		keep.UpdatedAt = time.Now().UTC()
		if err := tx.Select("*").Omit("created_at").Updates(keep).Error; err != nil {
			return crnerrors.ErrStoreFailure("save merged identity", err)
		}
		merged = keep
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "Identities merged",
		logger.String("identity_id", keepID),
		logger.String("absorbed_identity_id", absorbID),
	)
	return merged, nil
}

// CountByTier returns one row per tier, including empty tiers.
func (r *NetworkIdentityRepoImpl) CountByTier(ctx context.Context) ([]models.TierCount, error) {
	var rows []models.TierCount
	err := r.db.WithContext(ctx).
		Model(&models.NetworkIdentity{}).
		Select("risk_tier AS tier, COUNT(*) AS count").
		Group("risk_tier").
		Scan(&rows).Error
	if err != nil {
		return nil, crnerrors.ErrStoreFailure("count identities by tier", err)
	}
	return fillTiers(rows), nil
}

func fillTiers(rows []models.TierCount) []models.TierCount {
	byTier := make(map[models.RiskTier]int64, len(rows))
	for _, row := range rows {
		byTier[row.Tier] = row.Count
	}
	out := make([]models.TierCount, 0, len(models.AllRiskTiers))
	for _, tier := range models.AllRiskTiers {
		out = append(out, models.TierCount{Tier: tier, Count: byTier[tier]})
	}
	return out
}
