package service

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
	"github.com/turtacn/crn/pkg/utils"
)

const (
	defaultSyncLimit       = 200
	importBatchSize        = 500
	maxImportErrors        = 50
	propertySyncConfidence = 1.0
)

// PropertyAppService covers public property records and their linkage to identities.
type PropertyAppService interface {
	// SearchProperties routes a free-text query to owner-name or address search.
	SearchProperties(ctx context.Context, req *dto.PropertySearchRequest) (*dto.PropertySearchResponse, error)

	// FindPropertyMatches ranks property records against a customer.
	FindPropertyMatches(ctx context.Context, tenantID, customerID string) (*dto.PropertyMatchesResponse, error)

	// EnrichCustomer links the customer's identity to a definitive match and fills
	// missing city, state and county. Non-definitive candidates are returned as suggestions.
	EnrichCustomer(ctx context.Context, tenantID, customerID string) (*dto.EnrichmentResponse, error)

	// BatchSyncProperties creates identities for unlinked residential records.
	BatchSyncProperties(ctx context.Context, req *dto.BatchSyncRequest) (*models.SyncResult, error)

	// ImportProperties upserts records from a CSV with a header row.
	ImportProperties(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

type propertyAppServiceImpl struct {
	properties repository.PropertyRepository
	customers  repository.CustomerRepository
	linker     *domainservice.RecordLinker
	resolver   *domainservice.IdentityResolver
	hasher     *domainservice.Hasher
	network    *NetworkWriter
	scoring    *domainservice.ScoringProvider
	metrics    domainservice.Metrics
	clock      repository.Clock
	logger     logger.Logger
}

// NewPropertyAppService creates a PropertyAppService.
func NewPropertyAppService(
	properties repository.PropertyRepository,
	customers repository.CustomerRepository,
	linker *domainservice.RecordLinker,
	resolver *domainservice.IdentityResolver,
	hasher *domainservice.Hasher,
	network *NetworkWriter,
	scoring *domainservice.ScoringProvider,
	metrics domainservice.Metrics,
	clock repository.Clock,
	log logger.Logger,
) PropertyAppService {
	if metrics == nil {
		metrics = domainservice.NoopMetrics{}
	}
	if clock == nil {
		clock = domainservice.SystemClock{}
	}
	return &propertyAppServiceImpl{
		properties: properties,
		customers:  customers,
		linker:     linker,
		resolver:   resolver,
		hasher:     hasher,
		network:    network,
		scoring:    scoring,
		metrics:    metrics,
		clock:      clock,
		logger:     log.WithComponent("property_service"),
	}
}

func (s *propertyAppServiceImpl) SearchProperties(ctx context.Context, req *dto.PropertySearchRequest) (*dto.PropertySearchResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.scoring.Get().CandidateLimit
	}

	query := strings.TrimSpace(req.Query)
	if domainservice.LooksLikeName(query) {
		parsed := domainservice.ParseDisplayName(query)
		terms := []string{strings.ToLower(parsed.LastName)}
		if parsed.FirstName != "" {
			terms = append(terms, strings.ToLower(parsed.FirstName))
		}
		records, err := s.properties.SearchByOwner(ctx, terms, "", limit)
		if err != nil {
			return nil, err
		}
		return &dto.PropertySearchResponse{Mode: dto.PropertySearchByName, Results: nonNil(records)}, nil
	}

	pattern := domainservice.NormalizeAddress(domainservice.StreetLine(query))
	if pattern == "" {
		return nil, errors.ErrInvalidParameterFormat("q", "a name or street address")
	}
	records, err := s.properties.SearchByAddress(ctx, pattern, limit)
	if err != nil {
		return nil, err
	}
	return &dto.PropertySearchResponse{Mode: dto.PropertySearchByAddress, Results: nonNil(records)}, nil
}

func (s *propertyAppServiceImpl) FindPropertyMatches(ctx context.Context, tenantID, customerID string) (*dto.PropertyMatchesResponse, error) {
	ctx, span := tracer.Start(ctx, "PropertyAppService.FindPropertyMatches")
	defer span.End()

	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.linker.FindCandidates(ctx, subjectOf(customer))
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []models.RankedCandidate{}
	}
	return &dto.PropertyMatchesResponse{CustomerID: customer.ID, Candidates: candidates}, nil
}

func (s *propertyAppServiceImpl) EnrichCustomer(ctx context.Context, tenantID, customerID string) (*dto.EnrichmentResponse, error) {
	ctx, span := tracer.Start(ctx, "PropertyAppService.EnrichCustomer")
	defer span.End()

	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.linker.FindCandidates(ctx, subjectOf(customer))
	if err != nil {
		return nil, err
	}

	best, ok := domainservice.BestDefinitive(candidates)
	if !ok {
		return &dto.EnrichmentResponse{Customer: dto.NewCustomerResponse(customer), Suggestions: candidates}, nil
	}
	resp := &dto.EnrichmentResponse{Match: &best}

	facts := s.hasher.IdentityFacts(customer.Phone, customer.Email, customer.Address, customer.City)
	if !facts.Empty() {
		res, err := s.resolver.ResolveOrCreate(ctx, facts, "", models.SourcePropertyEnrichment)
		if err != nil {
			return nil, err
		}
		s.network.Invalidate(ctx, domainservice.IdentityCacheKeys(res.Identity))
		linked, err := s.properties.CreateLink(ctx, &models.PropertyCustomerLink{
			ID:         uuid.New().String(),
			PropertyID: best.Property.ID,
			IdentityID: res.Identity.ID,
			MatchType:  best.MatchType,
			Confidence: best.Confidence,
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return nil, err
		}
		resp.Linked = linked
	}

	resp.UpdatedFields = fillFromProperty(customer, best.Property)
	if len(resp.UpdatedFields) > 0 {
		customer.UpdatedAt = s.clock.Now()
		if err := s.customers.Update(ctx, customer); err != nil {
			return nil, err
		}
	}
	resp.Customer = dto.NewCustomerResponse(customer)

	s.logger.Info(ctx, "customer enriched",
		logger.String("customer_id", customer.ID),
		logger.String("property_id", best.Property.ID),
		logger.Float64("confidence", best.Confidence),
		logger.Bool("linked", resp.Linked),
	)
	return resp, nil
}

// fillFromProperty copies location fields the customer is missing.
func fillFromProperty(c *models.Customer, p *models.PropertyRecord) []string {
	var updated []string
	if c.City == "" && p.Municipality != "" {
		c.City = p.Municipality
		updated = append(updated, "city")
	}
	if c.State == "" && p.State != "" {
		c.State = p.State
		updated = append(updated, "state")
	}
	if c.County == "" && p.County != "" {
		c.County = p.County
		updated = append(updated, "county")
	}
	return updated
}

func (s *propertyAppServiceImpl) BatchSyncProperties(ctx context.Context, req *dto.BatchSyncRequest) (*models.SyncResult, error) {
	ctx, span := tracer.Start(ctx, "PropertyAppService.BatchSyncProperties")
	defer span.End()

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSyncLimit
	}

	records, err := s.properties.ListUnlinkedResidential(ctx, req.Filter(), limit)
	if err != nil {
		return nil, err
	}

	result := &models.SyncResult{}
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.NextCursor = record.ID

		// Rows ingested before business_owned was derived can still slip through.
		if domainservice.IsBusinessEntity(record.OwnerName) {
			result.Skipped++
			continue
		}
		linked, err := s.properties.HasAnyLink(ctx, record.ID)
		if err != nil {
			return result, err
		}
		if linked {
			result.Skipped++
			continue
		}
		facts := s.hasher.IdentityFacts("", "", record.Address, record.Municipality)
		if facts.Empty() {
			result.Skipped++
			continue
		}

		res, err := s.resolver.ResolveOrCreate(ctx, facts, "", models.SourcePropertyEnrichment)
		if err != nil {
			return result, err
		}
		if res.Created {
			result.Created++
		}
		created, err := s.properties.CreateLink(ctx, &models.PropertyCustomerLink{
			ID:         uuid.New().String(),
			PropertyID: record.ID,
			IdentityID: res.Identity.ID,
			MatchType:  models.MatchTypePropertySync,
			Confidence: propertySyncConfidence,
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return result, err
		}
		if created {
			result.Linked++
		}
		if !res.Created {
			s.network.Invalidate(ctx, domainservice.IdentityCacheKeys(res.Identity))
		}
	}

	s.metrics.RecordPropertySync(*result)
	s.logger.Info(ctx, "property sync finished",
		logger.Int("examined", len(records)),
		logger.Int("created", result.Created),
		logger.Int("linked", result.Linked),
		logger.Int("skipped", result.Skipped),
	)
	return result, nil
}

// csvColumns are the recognised header names.
var csvColumns = []string{
	"parcel_id", "owner_name", "address", "municipality", "county", "state",
	"zip", "property_class", "assessed_value", "year_built",
}

func (s *propertyAppServiceImpl) ImportProperties(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ErrValidation("property CSV has no header row").WithCause(err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"parcel_id", "address"} {
		if _, ok := index[required]; !ok {
			return nil, errors.ErrMissingRequiredParameter(required + " column")
		}
	}

	result := &dto.ImportResult{}
	batch := make([]*models.PropertyRecord, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.properties.Upsert(ctx, batch)
		if err != nil {
			return err
		}
		result.Imported += n
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		row, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			s.reject(result, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Rows++
		record, rerr := recordFromRow(row, index, s.clock.Now())
		if rerr != nil {
			s.reject(result, fmt.Sprintf("line %d: %v", line, rerr))
			continue
		}
		batch = append(batch, record)
		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	s.logger.Info(ctx, "property import finished",
		logger.Int("rows", result.Rows),
		logger.Int("imported", result.Imported),
		logger.Int("rejected", result.Rejected),
	)
	return result, nil
}

func (s *propertyAppServiceImpl) reject(result *dto.ImportResult, msg string) {
	result.Rejected++
	if len(result.Errors) < maxImportErrors {
		result.Errors = append(result.Errors, msg)
	}
}

func recordFromRow(row []string, index map[string]int, now time.Time) (*models.PropertyRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	record := &models.PropertyRecord{
		ParcelID:      get("parcel_id"),
		OwnerName:     get("owner_name"),
		Address:       get("address"),
		Municipality:  get("municipality"),
		County:        get("county"),
		State:         get("state"),
		Zip:           get("zip"),
		PropertyClass: get("property_class"),
		UpdatedAt:     now,
	}
	if record.ParcelID == "" {
		return nil, stderrors.New("parcel_id is empty")
	}
	if record.Address == "" {
		return nil, stderrors.New("address is empty")
	}
	if v := get("assessed_value"); v != "" {
		n, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("assessed_value %q is not a number", v)
		}
		record.AssessedValue = n
	}
	if v := get("year_built"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("year_built %q is not a number", v)
		}
		record.YearBuilt = n
	}
	return record, nil
}

func subjectOf(c *models.Customer) domainservice.LinkageSubject {
	return domainservice.LinkageSubject{Name: c.Name, Address: c.Address, City: c.City, County: c.County}
}

func nonNil(records []*models.PropertyRecord) []*models.PropertyRecord {
	if records == nil {
		return []*models.PropertyRecord{}
	}
	return records
}
