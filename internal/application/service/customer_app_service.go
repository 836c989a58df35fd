package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
	"github.com/turtacn/crn/pkg/utils"
)

// Customer add outcomes reported to metrics.
const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// CustomerAppService covers the tenant-private customer and event use cases.
type CustomerAppService interface {
	// AddCustomer stores a customer and resolves its network identity. A tenant-local
	// duplicate on phone or email is reported unless req.SkipDuplicateCheck is set.
	// Once the customer is saved it is always returned; if identity resolution then
	// fails the response carries no Network and the next update or event retries it.
	AddCustomer(ctx context.Context, tenantID string, req *dto.AddCustomerRequest) (*dto.AddCustomerResponse, error)

	GetCustomer(ctx context.Context, tenantID, customerID string) (*dto.CustomerResponse, error)

	ListCustomers(ctx context.Context, tenantID string, req *dto.ListCustomersRequest) (*dto.ListCustomersResponse, error)

	// UpdateCustomer edits contact fields and merges any new facts into the network identity.
	UpdateCustomer(ctx context.Context, tenantID, customerID string, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)

	// DeleteCustomer removes the customer and its event log. Network aggregates stay.
	DeleteCustomer(ctx context.Context, tenantID, customerID string) error

	// LogEvent appends an event and records it against the network identity.
	LogEvent(ctx context.Context, tenantID, customerID string, req *dto.LogEventRequest) (*dto.LogEventResponse, error)

	ListEvents(ctx context.Context, tenantID, customerID string) ([]*dto.EventResponse, error)
}

type customerAppServiceImpl struct {
	customers repository.CustomerRepository
	events    repository.EventRepository
	network   *NetworkWriter
	metrics   domainservice.Metrics
	clock     repository.Clock
	logger    logger.Logger
}

// NewCustomerAppService creates a CustomerAppService.
func NewCustomerAppService(
	customers repository.CustomerRepository,
	events repository.EventRepository,
	network *NetworkWriter,
	metrics domainservice.Metrics,
	clock repository.Clock,
	log logger.Logger,
) CustomerAppService {
	if metrics == nil {
		metrics = domainservice.NoopMetrics{}
	}
	if clock == nil {
		clock = domainservice.SystemClock{}
	}
	return &customerAppServiceImpl{
		customers: customers,
		events:    events,
		network:   network,
		metrics:   metrics,
		clock:     clock,
		logger:    log.WithComponent("customer_service"),
	}
}

func (s *customerAppServiceImpl) AddCustomer(ctx context.Context, tenantID string, req *dto.AddCustomerRequest) (*dto.AddCustomerResponse, error) {
	ctx, span := tracer.Start(ctx, "CustomerAppService.AddCustomer")
	defer span.End()

	if err := validateCustomerFacts(req, req.Facts()); err != nil {
		s.metrics.RecordCustomerAdded(outcomeInvalid)
		return nil, err
	}

	customer := &models.Customer{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Address:  strings.TrimSpace(req.Address),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
		County:   strings.TrimSpace(req.County),
	}
	normalizeCustomer(customer)

	if !req.SkipDuplicateCheck {
		if err := s.checkDuplicate(ctx, customer); err != nil {
			s.metrics.RecordCustomerAdded(outcomeDuplicate)
			return nil, err
		}
	}

	now := s.clock.Now()
	customer.CreatedAt, customer.UpdatedAt = now, now
	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.metrics.RecordCustomerAdded(outcomeCreated)
	s.logger.Info(ctx, "customer added", logger.String("customer_id", customer.ID))

	resp := &dto.AddCustomerResponse{Customer: dto.NewCustomerResponse(customer)}
	// The customer row is committed; a network failure from here on leaves it in place.
	res, err := s.network.ResolveCustomer(ctx, tenantID, customer)
	if err != nil {
		s.logger.Warn(ctx, "network resolution failed after customer was saved",
			logger.Error(err),
			logger.String("customer_id", customer.ID),
		)
		return resp, nil
	}
	if res != nil {
		resp.Network = dto.NewNetworkIdentityDTO(res.Identity, nil)
	}
	return resp, nil
}

// checkDuplicate looks for another customer of the tenant with the same phone, then email.
func (s *customerAppServiceImpl) checkDuplicate(ctx context.Context, c *models.Customer) error {
	if c.PhoneNormalized != "" {
		existing, err := s.customers.FindByNormalizedPhone(ctx, c.TenantID, c.PhoneNormalized)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != c.ID {
			return errors.ErrDuplicateCustomer("phone", existing.ID)
		}
	}
	if c.EmailNormalized != "" {
		existing, err := s.customers.FindByNormalizedEmail(ctx, c.TenantID, c.EmailNormalized)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != c.ID {
			return errors.ErrDuplicateCustomer("email", existing.ID)
		}
	}
	return nil
}

func (s *customerAppServiceImpl) GetCustomer(ctx context.Context, tenantID, customerID string) (*dto.CustomerResponse, error) {
	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return dto.NewCustomerResponse(customer), nil
}

func (s *customerAppServiceImpl) ListCustomers(ctx context.Context, tenantID string, req *dto.ListCustomersRequest) (*dto.ListCustomersResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := utils.ClampPageSize(req.PageSize, constants.DefaultPageSize, constants.MaxPageSize)

	customers, total, err := s.customers.List(ctx, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, dto.NewCustomerResponse(c))
	}
	return &dto.ListCustomersResponse{Customers: out, Pagination: dto.NewPagination(page, pageSize, total)}, nil
}

func (s *customerAppServiceImpl) UpdateCustomer(ctx context.Context, tenantID, customerID string, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	ctx, span := tracer.Start(ctx, "CustomerAppService.UpdateCustomer")
	defer span.End()

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	applyUpdate(customer, req.Update())
	if err := validateContact(customer.Name, customer.Phone, customer.Email, customer.Address); err != nil {
		return nil, err
	}
	normalizeCustomer(customer)

	if !req.SkipDuplicateCheck {
		if err := s.checkDuplicate(ctx, customer); err != nil {
			return nil, err
		}
	}

	customer.UpdatedAt = s.clock.Now()
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	if _, err := s.network.ResolveCustomer(ctx, tenantID, customer); err != nil {
		s.logger.Error(ctx, "network resolution failed after customer update", err, logger.String("customer_id", customer.ID))
		return nil, err
	}
	return dto.NewCustomerResponse(customer), nil
}

func (s *customerAppServiceImpl) DeleteCustomer(ctx context.Context, tenantID, customerID string) error {
	if err := s.customers.Delete(ctx, tenantID, customerID); err != nil {
		return err
	}
	s.logger.Info(ctx, "customer deleted", logger.String("customer_id", customerID))
	return nil
}

func (s *customerAppServiceImpl) LogEvent(ctx context.Context, tenantID, customerID string, req *dto.LogEventRequest) (*dto.LogEventResponse, error) {
	ctx, span := tracer.Start(ctx, "CustomerAppService.LogEvent")
	defer span.End()

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		return nil, errors.ErrMissingRequiredParameter("category")
	}

	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          uuid.New().String(),
		CustomerID:  customer.ID,
		TenantID:    tenantID,
		Category:    category,
		Description: strings.TrimSpace(req.Note),
		Severity:    req.Severity,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.events.Append(ctx, event); err != nil {
		return nil, err
	}
	s.metrics.RecordEventLogged(event.Severity, s.network.IsNegative(event.Severity))

	resp := &dto.LogEventResponse{Event: dto.NewEventResponse(event)}
	res, err := s.network.ResolveCustomer(ctx, tenantID, customer)
	if err != nil {
		s.logger.Error(ctx, "network resolution failed after event was saved", err, logger.String("event_id", event.ID))
		return nil, err
	}
	if res == nil {
		return resp, nil
	}
	updated, err := s.network.RecordIncident(ctx, res.Identity.ID, event)
	if err != nil {
		s.logger.Error(ctx, "network incident failed after event was saved", err, logger.String("event_id", event.ID))
		return nil, err
	}
	resp.Network = dto.NewNetworkIdentityDTO(updated, nil)

	s.logger.Info(ctx, "event logged",
		logger.String("customer_id", customer.ID),
		logger.Int("severity", event.Severity),
		logger.String("identity_id", updated.ID),
	)
	return resp, nil
}

func (s *customerAppServiceImpl) ListEvents(ctx context.Context, tenantID, customerID string) ([]*dto.EventResponse, error) {
	if _, err := s.customers.FindByID(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.NewEventResponse(e))
	}
	return out, nil
}

// validateCustomerFacts runs struct validation and the contact rules before any
// hashing or store access.
func validateCustomerFacts(req interface{}, f models.CustomerFacts) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	return validateContact(f.Name, f.Phone, f.Email, f.Address)
}

func validateContact(name, phone, email, address string) error {
	if strings.TrimSpace(name) == "" {
		return errors.ErrMissingRequiredParameter("name")
	}
	if strings.TrimSpace(phone) == "" && strings.TrimSpace(email) == "" && strings.TrimSpace(address) == "" {
		return errors.ErrValidation("at least one of phone, email or address is required")
	}
	if strings.TrimSpace(phone) != "" {
		n := len(domainservice.NormalizePhone(phone))
		if n < minPhoneDigits || n > maxPhoneDigits {
			return errors.ErrInvalidParameterFormat("phone", "7 to 15 digits")
		}
	}
	if strings.TrimSpace(email) != "" && !utils.ValidateEmail(strings.TrimSpace(email)) {
		return errors.ErrInvalidParameterFormat("email", "an email address")
	}
	return nil
}

func normalizeCustomer(c *models.Customer) {
	c.PhoneNormalized = domainservice.NormalizePhone(c.Phone)
	c.EmailNormalized = domainservice.NormalizeEmail(c.Email)
}

func applyUpdate(c *models.Customer, u models.CustomerUpdate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.Name, u.Name)
	set(&c.Phone, u.Phone)
	set(&c.Email, u.Email)
	set(&c.Address, u.Address)
	set(&c.City, u.City)
	set(&c.State, u.State)
	set(&c.County, u.County)
}
