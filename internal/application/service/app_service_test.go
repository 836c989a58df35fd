package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/application/service"
	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	domainmocks "github.com/turtacn/crn/internal/domain/service/mocks"
	"github.com/turtacn/crn/internal/infrastructure/persistence/postgres"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type harness struct {
	customers   service.CustomerAppService
	network     service.NetworkAppService
	properties  service.PropertyAppService
	reliability service.ReliabilityAppService
	maintenance service.MaintenanceAppService
	businesses  service.BusinessAppService

	conn         *postgres.DBConnection
	propertyRepo repository.PropertyRepository
	identities   repository.NetworkIdentityRepository
	hasher       *domainservice.Hasher
	publisher    *domainmocks.MockIncidentPublisher
	clock        *fixedClock
}

func newHarness(t *testing.T, limiter domainservice.RateLimiter, limits service.NetworkSearchLimits) *harness {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNoopLogger()

	conn, err := postgres.NewDBConnection(ctx, &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, log)
	require.NoError(t, err)
	require.NoError(t, conn.Migrate(ctx))
	t.Cleanup(func() { _ = conn.Close() })

	db := conn.DB()
	customers := postgres.NewCustomerRepository(db, log)
	events := postgres.NewEventRepository(db, log)
	identities := postgres.NewNetworkIdentityRepository(db, log)
	properties := postgres.NewPropertyRepository(db, log)
	businesses := postgres.NewBusinessRepository(db, log)

	clock := &fixedClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	scoring := domainservice.NewScoringProvider(domainservice.DefaultScoringConfig())
	hasher := domainservice.NewHasher("test-pepper")
	resolver := domainservice.NewIdentityResolver(identities, scoring, clock, nil, log)
	linker := domainservice.NewRecordLinker(properties, scoring, nil)

	publisher := &domainmocks.MockIncidentPublisher{}
	publisher.On("PublishIncident", mock.Anything, mock.Anything).Return(nil).Maybe()
	writer := service.NewNetworkWriter(resolver, hasher, nil, publisher, clock, log)

	return &harness{
		customers:    service.NewCustomerAppService(customers, events, writer, nil, clock, log),
		network:      service.NewNetworkAppService(identities, properties, resolver, hasher, nil, limiter, limits, scoring, nil, log),
		properties:   service.NewPropertyAppService(properties, customers, linker, resolver, hasher, writer, scoring, nil, clock, log),
		reliability:  service.NewReliabilityAppService(customers, events, scoring, log),
		maintenance:  service.NewMaintenanceAppService(identities, resolver, writer, nil, log),
		businesses:   service.NewBusinessAppService(businesses, time.Minute, clock, log),
		conn:         conn,
		propertyRepo: properties,
		identities:   identities,
		hasher:       hasher,
		publisher:    publisher,
		clock:        clock,
	}
}

func TestTwoTenantNetworkScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	first, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "555-123-4567"})
	require.NoError(t, err)
	require.NotNil(t, first.Network)
	assert.Equal(t, 1, first.Network.SeenByBusinessCount)
	assert.Equal(t, "4567", first.Network.PhoneLast4)

	logged, err := h.customers.LogEvent(ctx, "tenant-1", first.Customer.ID, &dto.LogEventRequest{Severity: 4, Category: "No Show"})
	require.NoError(t, err)
	assert.Equal(t, "no show", logged.Event.Category)
	assert.Equal(t, 24, logged.Network.WeightedScore)
	assert.Equal(t, models.RiskTierMedium, logged.Network.RiskTier)

	second, err := h.customers.AddCustomer(ctx, "tenant-2", &dto.AddCustomerRequest{
		Name: "J. Doe", Phone: "(555) 123-4567", Email: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, first.Network.ID, second.Network.ID)
	assert.Equal(t, 2, second.Network.SeenByBusinessCount)

	logged, err = h.customers.LogEvent(ctx, "tenant-2", second.Customer.ID, &dto.LogEventRequest{Severity: 5, Category: "payment"})
	require.NoError(t, err)
	assert.Equal(t, 54, logged.Network.WeightedScore)
	assert.Equal(t, models.RiskTierCritical, logged.Network.RiskTier)
	assert.Equal(t, 2, logged.Network.TotalIncidents)

	found, err := h.network.SearchNetwork(ctx, "tenant-3", &dto.NetworkSearchRequest{Kind: "email", Value: "JANE@example.com"})
	require.NoError(t, err)
	require.True(t, found.Found)
	assert.Equal(t, first.Network.ID, found.Identity.ID)
	assert.Equal(t, map[string]int{"no show": 1, "payment": 1}, found.Identity.Breakdown)

	// Tenant data stays private: tenant-1 cannot see tenant-2's customer.
	_, err = h.customers.GetCustomer(ctx, "tenant-1", second.Customer.ID)
	assert.True(t, crnerrors.IsNotFoundError(err))

	h.publisher.AssertNumberOfCalls(t, "PublishIncident", 2)
}

func TestReliabilityProfileUsesTenantEventsOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	jane, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "5551234567"})
	require.NoError(t, err)
	_, err = h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Sam Roe", Email: "sam@example.com"})
	require.NoError(t, err)
	other, err := h.customers.AddCustomer(ctx, "tenant-2", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "5551234567"})
	require.NoError(t, err)

	_, err = h.customers.LogEvent(ctx, "tenant-1", jane.Customer.ID, &dto.LogEventRequest{Severity: 4, Category: "late"})
	require.NoError(t, err)
	_, err = h.customers.LogEvent(ctx, "tenant-2", other.Customer.ID, &dto.LogEventRequest{Severity: 5, Category: "damage"})
	require.NoError(t, err)

	profile, err := h.reliability.GetReliabilityProfile(ctx, "tenant-1", jane.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 76, profile.Score)
	assert.Equal(t, models.RiskLevelLow, profile.RiskLevel)
	assert.Equal(t, models.TrendStable, profile.Trend)
	assert.Equal(t, 0, profile.Percentile)
	assert.Equal(t, map[string]int{"late": 1}, profile.Breakdown)
	assert.Equal(t, 1, profile.EventCount)

	_, err = h.reliability.GetReliabilityProfile(ctx, "tenant-2", jane.Customer.ID)
	assert.True(t, crnerrors.IsNotFoundError(err))
}

func TestAddCustomerDuplicateDetection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	existing, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "555-123-4567"})
	require.NoError(t, err)

	_, err = h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Janet Doe", Phone: "5551234567"})
	require.Error(t, err)
	assert.True(t, crnerrors.IsDuplicateError(err))
	field, id, ok := crnerrors.DuplicateDetails(err)
	require.True(t, ok)
	assert.Equal(t, "phone", field)
	assert.Equal(t, existing.Customer.ID, id)

	_, err = h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Janet Doe", Phone: "5551234567", SkipDuplicateCheck: true})
	assert.NoError(t, err)

	_, err = h.customers.AddCustomer(ctx, "tenant-2", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "5551234567"})
	assert.NoError(t, err)
}

func TestAddCustomerKeepsSavedCustomerWhenNetworkFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})
	require.NoError(t, h.conn.DB().Migrator().DropTable(&models.NetworkIdentity{}))

	added, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "555-123-4567"})
	require.NoError(t, err)
	require.NotNil(t, added.Customer)
	assert.Nil(t, added.Network)

	stored, err := h.customers.GetCustomer(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.Name)

	// The identity is picked up by the next event once the store is back.
	require.NoError(t, h.conn.Migrate(ctx))
	logged, err := h.customers.LogEvent(ctx, "tenant-1", added.Customer.ID, &dto.LogEventRequest{Severity: 2, Category: "late"})
	require.NoError(t, err)
	require.NotNil(t, logged.Network)
	assert.Equal(t, 1, logged.Network.SeenByBusinessCount)
}

func TestAddCustomerValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	cases := map[string]*dto.AddCustomerRequest{
		"no facts":    {Name: "Jane Doe"},
		"no name":     {Phone: "5551234567"},
		"short phone": {Name: "Jane Doe", Phone: "12345"},
		"bad email":   {Name: "Jane Doe", Email: "not-an-email"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.customers.AddCustomer(ctx, "tenant-1", req)
			require.Error(t, err)
			assert.True(t, crnerrors.IsValidationError(err))
		})
	}

	list, err := h.customers.ListCustomers(ctx, "tenant-1", &dto.ListCustomersRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Customers)
}

func TestUpdateAndDeleteCustomer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	added, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "5551234567"})
	require.NoError(t, err)

	email := "jane@example.com"
	updated, err := h.customers.UpdateCustomer(ctx, "tenant-1", added.Customer.ID, &dto.UpdateCustomerRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)

	// The new email joins the existing identity.
	found, err := h.network.SearchNetwork(ctx, "tenant-1", &dto.NetworkSearchRequest{Kind: "email", Value: email})
	require.NoError(t, err)
	require.True(t, found.Found)
	assert.Equal(t, added.Network.ID, found.Identity.ID)

	_, err = h.customers.LogEvent(ctx, "tenant-1", added.Customer.ID, &dto.LogEventRequest{Severity: 3, Category: "late"})
	require.NoError(t, err)
	require.NoError(t, h.customers.DeleteCustomer(ctx, "tenant-1", added.Customer.ID))

	_, err = h.customers.ListEvents(ctx, "tenant-1", added.Customer.ID)
	assert.True(t, crnerrors.IsNotFoundError(err))

	// Network aggregates survive the tenant-side delete.
	identity, err := h.network.GetIdentity(ctx, added.Network.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, identity.TotalIncidents)
}

func TestSearchNetworkRateLimit(t *testing.T) {
	ctx := context.Background()
	limiter := &domainmocks.MockRateLimiter{}
	limits := service.NetworkSearchLimits{Limit: 10, Window: time.Minute}
	resetAt := time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC)

	limiter.On("Allow", mock.Anything, "network_search", "tenant-1", 10, time.Minute).Return(false, 0, resetAt, nil).Once()
	limiter.On("Allow", mock.Anything, "network_search", "tenant-2", 10, time.Minute).Return(false, 0, time.Time{}, assert.AnError).Once()

	h := newHarness(t, limiter, limits)

	_, err := h.network.SearchNetwork(ctx, "tenant-1", &dto.NetworkSearchRequest{Kind: "phone", Value: "5551234567"})
	require.Error(t, err)
	assert.True(t, crnerrors.IsRateLimitError(err))
	crnErr, ok := crnerrors.AsCRNError(err)
	require.True(t, ok)
	assert.Equal(t, "2025-03-01T12:01:00Z", crnErr.Metadata()["reset_at"])

	// Limiter failures fail open.
	resp, err := h.network.SearchNetwork(ctx, "tenant-2", &dto.NetworkSearchRequest{Kind: "phone", Value: "5551234567"})
	require.NoError(t, err)
	assert.False(t, resp.Found)

	limiter.AssertExpectations(t)
}

func TestSearchNetworkRejectsMalformedValues(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	for _, req := range []*dto.NetworkSearchRequest{
		{Kind: "phone", Value: "123"},
		{Kind: "email", Value: "nobody"},
		{Kind: "ssn", Value: "123-45-6789"},
		{Kind: "address", Value: " , "},
	} {
		_, err := h.network.SearchNetwork(ctx, "tenant-1", req)
		assert.True(t, crnerrors.IsValidationError(err), "kind=%s value=%q", req.Kind, req.Value)
	}

	_, err := h.network.GetIdentity(ctx, "not-a-uuid")
	assert.True(t, crnerrors.IsValidationError(err))
	_, err = h.network.GetIdentity(ctx, uuid.NewString())
	assert.True(t, crnerrors.IsNotFoundError(err))
}

func seedProperties(t *testing.T, h *harness, records ...*models.PropertyRecord) {
	t.Helper()
	_, err := h.propertyRepo.Upsert(context.Background(), records)
	require.NoError(t, err)
}

func TestEnrichCustomerLinksDefinitiveMatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})
	seedProperties(t, h, &models.PropertyRecord{
		ParcelID: "P-1", OwnerName: "DOE JANE", Address: "12 Main Street",
		Municipality: "Springfield", County: "Sangamon", State: "IL", PropertyClass: "residential",
	})

	added, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{
		Name: "Jane Doe", Phone: "5551234567", Address: "12 Main St.",
	})
	require.NoError(t, err)

	matches, err := h.properties.FindPropertyMatches(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	require.Len(t, matches.Candidates, 1)
	assert.Equal(t, models.MatchTypeAddress, matches.Candidates[0].MatchType)
	assert.InDelta(t, 0.8, matches.Candidates[0].Confidence, 0.0001)
	assert.True(t, matches.Candidates[0].Definitive)

	enriched, err := h.properties.EnrichCustomer(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	require.NotNil(t, enriched.Match)
	assert.True(t, enriched.Linked)
	assert.Equal(t, []string{"city", "state", "county"}, enriched.UpdatedFields)
	assert.Equal(t, "Springfield", enriched.Customer.City)

	again, err := h.properties.EnrichCustomer(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	assert.False(t, again.Linked)
	assert.Empty(t, again.UpdatedFields)

	stored, err := h.customers.GetCustomer(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sangamon", stored.County)
}

func TestEnrichCustomerIgnoresLongerHouseNumbers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})
	seedProperties(t, h, &models.PropertyRecord{
		ParcelID: "P-112", OwnerName: "ROE SAM", Address: "112 Main Street",
		Municipality: "Springfield", County: "Sangamon", State: "IL", PropertyClass: "residential",
	})

	added, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{
		Name: "Pat Lee", Phone: "5557654321", Address: "12 Main St", City: "Springfield",
	})
	require.NoError(t, err)

	matches, err := h.properties.FindPropertyMatches(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	assert.Empty(t, matches.Candidates)

	enriched, err := h.properties.EnrichCustomer(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	assert.Nil(t, enriched.Match)
	assert.False(t, enriched.Linked)
}

func TestEnrichCustomerWithoutDefinitiveMatchSuggests(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})
	seedProperties(t, h, &models.PropertyRecord{
		ParcelID: "P-9", OwnerName: "DOE JANE", Address: "99 Elm Road",
		Municipality: "Shelbyville", County: "Shelby", State: "IL", PropertyClass: "residential",
	})

	added, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)

	enriched, err := h.properties.EnrichCustomer(ctx, "tenant-1", added.Customer.ID)
	require.NoError(t, err)
	assert.Nil(t, enriched.Match)
	assert.False(t, enriched.Linked)
	require.Len(t, enriched.Suggestions, 1)
	assert.Equal(t, models.MatchTypeName, enriched.Suggestions[0].MatchType)
	assert.False(t, enriched.Suggestions[0].Definitive)
}

func TestBatchSyncProperties(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})
	seedProperties(t, h,
		&models.PropertyRecord{ParcelID: "P-2", OwnerName: "SMITH JOHN", Address: "40 Oak Avenue", Municipality: "Springfield", PropertyClass: "residential"},
		&models.PropertyRecord{ParcelID: "P-3", OwnerName: "ACME HOLDINGS LLC", Address: "41 Oak Avenue", Municipality: "Springfield", PropertyClass: "residential"},
		&models.PropertyRecord{ParcelID: "P-4", OwnerName: "MILLER ANN", Address: "1 Market Street", Municipality: "Springfield", PropertyClass: "commercial"},
	)

	result, err := h.properties.BatchSyncProperties(ctx, &dto.BatchSyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Linked)
	assert.Equal(t, 0, result.Skipped)
	assert.NotEmpty(t, result.NextCursor)

	facts := h.hasher.IdentityFacts("", "", "40 Oak Avenue", "Springfield")
	synced, err := h.identities.FindByHash(ctx, models.HashKindAddress, facts.AddressHash)
	require.NoError(t, err)
	require.NotNil(t, synced)
	assert.Equal(t, 1, synced.SeenByBusinessCount)

	// A rerun leaves linked records alone.
	again, err := h.properties.BatchSyncProperties(ctx, &dto.BatchSyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 0, again.Linked)
	assert.Equal(t, 0, again.Skipped)

	_, err = h.properties.BatchSyncProperties(ctx, &dto.BatchSyncRequest{Limit: 10000})
	assert.True(t, crnerrors.IsValidationError(err))
}

func TestBatchSyncProgressesPastBusinessOwners(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})
	seedProperties(t, h,
		&models.PropertyRecord{ID: "a1", ParcelID: "B-1", OwnerName: "OAK RENTALS LLC", Address: "1 Oak Avenue", Municipality: "Springfield", PropertyClass: "residential"},
		&models.PropertyRecord{ID: "a2", ParcelID: "B-2", OwnerName: "PINE PROPERTIES INC", Address: "2 Oak Avenue", Municipality: "Springfield", PropertyClass: "residential"},
		&models.PropertyRecord{ID: "a3", ParcelID: "B-3", OwnerName: "FIRST BAPTIST CHURCH OF SPRINGFIELD", Address: "3 Oak Avenue", Municipality: "Springfield", PropertyClass: "residential"},
		&models.PropertyRecord{ID: "b1", ParcelID: "R-1", OwnerName: "NGUYEN TR", Address: "4 Oak Avenue", Municipality: "Springfield", PropertyClass: "residential"},
	)

	result, err := h.properties.BatchSyncProperties(ctx, &dto.BatchSyncRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Linked)
	assert.Equal(t, "b1", result.NextCursor)
}

func TestImportAndSearchProperties(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	csv := strings.Join([]string{
		"parcel_id,owner_name,address,municipality,county,state,zip,property_class,assessed_value,year_built",
		`P-10,DOE JANE,12 Main Street,Springfield,Sangamon,IL,62701,residential,"185,000",1962`,
		"P-11,ROE SAM,14 Main Street,Springfield,Sangamon,IL,62701,residential,90000,abc",
		",NOBODY,16 Main Street,Springfield,Sangamon,IL,62701,residential,,",
	}, "\n")

	result, err := h.properties.ImportProperties(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Rejected)
	assert.Len(t, result.Errors, 2)

	byName, err := h.properties.SearchProperties(ctx, &dto.PropertySearchRequest{Query: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, dto.PropertySearchByName, byName.Mode)
	require.Len(t, byName.Results, 1)
	assert.Equal(t, int64(185000), byName.Results[0].AssessedValue)
	assert.Equal(t, 1962, byName.Results[0].YearBuilt)

	byAddress, err := h.properties.SearchProperties(ctx, &dto.PropertySearchRequest{Query: "12 Main St, Springfield"})
	require.NoError(t, err)
	assert.Equal(t, dto.PropertySearchByAddress, byAddress.Mode)
	require.Len(t, byAddress.Results, 1)
	assert.Equal(t, "P-10", byAddress.Results[0].ParcelID)

	_, err = h.properties.ImportProperties(ctx, strings.NewReader("owner_name,zip\nX,1\n"))
	assert.True(t, crnerrors.IsValidationError(err))
}

func TestMaintenanceMergeAndTierReport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	a, err := h.customers.AddCustomer(ctx, "tenant-1", &dto.AddCustomerRequest{Name: "Jane Doe", Phone: "5551234567"})
	require.NoError(t, err)
	_, err = h.customers.LogEvent(ctx, "tenant-1", a.Customer.ID, &dto.LogEventRequest{Severity: 4, Category: "late"})
	require.NoError(t, err)
	b, err := h.customers.AddCustomer(ctx, "tenant-2", &dto.AddCustomerRequest{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	require.NotEqual(t, a.Network.ID, b.Network.ID)

	report, err := h.maintenance.TierReport(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.Total)

	merged, err := h.maintenance.MergeIdentities(ctx, &dto.MergeIdentitiesRequest{KeepID: a.Network.ID, AbsorbID: b.Network.ID})
	require.NoError(t, err)
	assert.Equal(t, a.Network.ID, merged.ID)
	assert.Equal(t, map[string]int{"late": 1}, merged.Breakdown)

	_, err = h.network.GetIdentity(ctx, b.Network.ID)
	assert.True(t, crnerrors.IsNotFoundError(err))

	found, err := h.network.SearchNetwork(ctx, "tenant-3", &dto.NetworkSearchRequest{Kind: "email", Value: "jane@example.com"})
	require.NoError(t, err)
	require.True(t, found.Found)
	assert.Equal(t, a.Network.ID, found.Identity.ID)

	_, err = h.maintenance.MergeIdentities(ctx, &dto.MergeIdentitiesRequest{KeepID: a.Network.ID, AbsorbID: a.Network.ID})
	assert.True(t, crnerrors.IsValidationError(err))

	h.clock.now = h.clock.now.AddDate(1, 1, 0)
	streaks, err := h.maintenance.RunCleanStreakJob(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, streaks.Scanned)
	assert.Equal(t, 1, streaks.Updated)

	identity, err := h.network.GetIdentity(ctx, a.Network.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, identity.CleanStreakMonths)
	assert.True(t, identity.CleanBadge)
}

func TestBusinessLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, service.NetworkSearchLimits{})

	created, err := h.businesses.CreateBusiness(ctx, &dto.CreateBusinessRequest{Name: "  Main Street Plumbing "})
	require.NoError(t, err)
	assert.Equal(t, "Main Street Plumbing", created.Name)

	ok, err := h.businesses.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.businesses.Exists(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.businesses.CreateBusiness(ctx, &dto.CreateBusinessRequest{ID: created.ID, Name: "Again"})
	assert.Error(t, err)

	_, err = h.businesses.GetBusiness(ctx, "bad")
	assert.True(t, crnerrors.IsValidationError(err))

	list, err := h.businesses.ListBusinesses(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
