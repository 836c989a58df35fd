// Package repository defines the persistence contracts of the Customer Reliability Network.
// Tenant-scoped repositories take the tenant id on every call. The network identity
// repository has no tenant parameter and no access to tenant models.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/turtacn/crn/internal/domain/models"
)

// ErrHashConflict is returned by SaveFacts when a hash being added is already held
// by another identity.
var ErrHashConflict = errors.New("hash already held by another identity")

// BusinessRepository stores tenants.
type BusinessRepository interface {
	Save(ctx context.Context, business *models.Business) error
	FindByID(ctx context.Context, id string) (*models.Business, error)
	List(ctx context.Context, limit, offset int) ([]*models.Business, error)
}

// CustomerRepository stores tenant-private customers.
type CustomerRepository interface {
	// Save persists a new customer.
	Save(ctx context.Context, customer *models.Customer) error

	// Update persists changes to an existing customer of the same tenant.
	Update(ctx context.Context, customer *models.Customer) error

	// FindByID loads a customer, returning not_found when it belongs to another tenant.
	FindByID(ctx context.Context, tenantID, customerID string) (*models.Customer, error)

	// FindByNormalizedPhone returns the tenant's customer with this phone, or nil.
	FindByNormalizedPhone(ctx context.Context, tenantID, phone string) (*models.Customer, error)

	// FindByNormalizedEmail returns the tenant's customer with this email, or nil.
	FindByNormalizedEmail(ctx context.Context, tenantID, email string) (*models.Customer, error)

	// List returns a page of the tenant's customers ordered by creation time.
	List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Customer, int64, error)

	// ListIDs returns every customer id of the tenant.
	ListIDs(ctx context.Context, tenantID string) ([]string, error)

	// Delete removes the customer and its event log.
	Delete(ctx context.Context, tenantID, customerID string) error
}

// EventRepository stores the append-only event log.
type EventRepository interface {
	// Append persists a new event.
	Append(ctx context.Context, event *models.Event) error

	// ListByCustomer returns the customer's events oldest first.
	ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*models.Event, error)

	// ListByTenant returns all of the tenant's events oldest first.
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Event, error)
}

// IdentityMutation is applied to a locked NetworkIdentity row.
// It returns per-category count deltas to apply in the same transaction.
type IdentityMutation func(identity *models.NetworkIdentity) (categoryDeltas map[string]int, err error)

// NetworkIdentityRepository is the only access path to the shared identity store.
type NetworkIdentityRepository interface {
	// FindByHash returns the identity holding hash under kind, or nil.
	FindByHash(ctx context.Context, kind models.HashKind, hash string) (*models.NetworkIdentity, error)

	// FindByID loads an identity or returns not_found.
	FindByID(ctx context.Context, id string) (*models.NetworkIdentity, error)

	// Create inserts identity unless one of its hashes is already held,
	// in which case it reports created=false and writes nothing. A non-empty
	// reporterKey is recorded as the first reporter in the same write; the
	// identity's own seen_by_business_count already accounts for it.
	Create(ctx context.Context, identity *models.NetworkIdentity, reporterKey string) (created bool, err error)

	// SaveFacts persists hash, fragment, source and last-seen changes of an existing identity.
	SaveFacts(ctx context.Context, identity *models.NetworkIdentity) error

	// RegisterReporter records reporterKey against the identity and, when the key is
	// new, increments seen_by_business_count. It reports whether the key was new.
	RegisterReporter(ctx context.Context, identityID, reporterKey string) (bool, error)

	// Mutate runs fn against the locked row and persists the result atomically.
	Mutate(ctx context.Context, id string, fn IdentityMutation) (*models.NetworkIdentity, error)

	// CategoryCounts returns the identity's non-zero category counts.
	CategoryCounts(ctx context.Context, id string) ([]*models.IncidentCategoryCount, error)

	// ListPage returns identities ordered by id after the given cursor.
	ListPage(ctx context.Context, afterID string, limit int) ([]*models.NetworkIdentity, error)

	// UpdateCleanStreak sets clean_streak_months for one identity.
	UpdateCleanStreak(ctx context.Context, id string, months int) error

	// Merge folds absorb into keep atomically: fn adjusts keep's counters, category
	// counts, reporters and property links move to keep, and absorb is deleted.
	Merge(ctx context.Context, keepID, absorbID string, fn func(keep, absorb *models.NetworkIdentity) error) (*models.NetworkIdentity, error)

	// CountByTier returns the tier distribution.
	CountByTier(ctx context.Context) ([]models.TierCount, error)
}

// PropertyRepository stores public property records and their identity links.
type PropertyRepository interface {
	// Upsert inserts or refreshes records keyed by parcel id.
	Upsert(ctx context.Context, records []*models.PropertyRecord) (int, error)

	FindByID(ctx context.Context, id string) (*models.PropertyRecord, error)

	// SearchByAddress matches the normalized address pattern on token boundaries.
	SearchByAddress(ctx context.Context, pattern string, limit int) ([]*models.PropertyRecord, error)

	// SearchByOwner matches normalized owner names containing terms in order
	// among residential records, restricted to county when one is given.
	SearchByOwner(ctx context.Context, terms []string, county string, limit int) ([]*models.PropertyRecord, error)

	// ListUnlinkedResidential returns residential records without any identity link, ordered by id.
	// Business-owned records are excluded so repeated runs always make progress.
	ListUnlinkedResidential(ctx context.Context, filter models.PropertyFilter, limit int) ([]*models.PropertyRecord, error)

	LinkExists(ctx context.Context, propertyID, identityID string) (bool, error)

	// HasAnyLink reports whether the property is linked to any identity.
	HasAnyLink(ctx context.Context, propertyID string) (bool, error)

	// CreateLink inserts a link, reporting created=false when the pair already exists.
	CreateLink(ctx context.Context, link *models.PropertyCustomerLink) (bool, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}
