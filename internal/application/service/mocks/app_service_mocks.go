// Package mocks provides testify mocks of the application services for handler tests.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/domain/models"
)

// MockCustomerAppService is a mock implementation of service.CustomerAppService
type MockCustomerAppService struct {
	mock.Mock
}

func (m *MockCustomerAppService) AddCustomer(ctx context.Context, tenantID string, req *dto.AddCustomerRequest) (*dto.AddCustomerResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AddCustomerResponse), args.Error(1)
}

func (m *MockCustomerAppService) GetCustomer(ctx context.Context, tenantID, customerID string) (*dto.CustomerResponse, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CustomerResponse), args.Error(1)
}

func (m *MockCustomerAppService) ListCustomers(ctx context.Context, tenantID string, req *dto.ListCustomersRequest) (*dto.ListCustomersResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListCustomersResponse), args.Error(1)
}

func (m *MockCustomerAppService) UpdateCustomer(ctx context.Context, tenantID, customerID string, req *dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	args := m.Called(ctx, tenantID, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CustomerResponse), args.Error(1)
}

func (m *MockCustomerAppService) DeleteCustomer(ctx context.Context, tenantID, customerID string) error {
	args := m.Called(ctx, tenantID, customerID)
	return args.Error(0)
}

func (m *MockCustomerAppService) LogEvent(ctx context.Context, tenantID, customerID string, req *dto.LogEventRequest) (*dto.LogEventResponse, error) {
	args := m.Called(ctx, tenantID, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LogEventResponse), args.Error(1)
}

func (m *MockCustomerAppService) ListEvents(ctx context.Context, tenantID, customerID string) ([]*dto.EventResponse, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.EventResponse), args.Error(1)
}

// MockNetworkAppService is a mock implementation of service.NetworkAppService
type MockNetworkAppService struct {
	mock.Mock
}

func (m *MockNetworkAppService) SearchNetwork(ctx context.Context, tenantID string, req *dto.NetworkSearchRequest) (*dto.NetworkSearchResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NetworkSearchResponse), args.Error(1)
}

func (m *MockNetworkAppService) GetIdentity(ctx context.Context, identityID string) (*dto.NetworkIdentityDTO, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NetworkIdentityDTO), args.Error(1)
}

// MockPropertyAppService is a mock implementation of service.PropertyAppService
type MockPropertyAppService struct {
	mock.Mock
}

func (m *MockPropertyAppService) SearchProperties(ctx context.Context, req *dto.PropertySearchRequest) (*dto.PropertySearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PropertySearchResponse), args.Error(1)
}

func (m *MockPropertyAppService) FindPropertyMatches(ctx context.Context, tenantID, customerID string) (*dto.PropertyMatchesResponse, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PropertyMatchesResponse), args.Error(1)
}

func (m *MockPropertyAppService) EnrichCustomer(ctx context.Context, tenantID, customerID string) (*dto.EnrichmentResponse, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EnrichmentResponse), args.Error(1)
}

func (m *MockPropertyAppService) BatchSyncProperties(ctx context.Context, req *dto.BatchSyncRequest) (*models.SyncResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncResult), args.Error(1)
}

func (m *MockPropertyAppService) ImportProperties(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ImportResult), args.Error(1)
}

// MockReliabilityAppService is a mock implementation of service.ReliabilityAppService
type MockReliabilityAppService struct {
	mock.Mock
}

func (m *MockReliabilityAppService) GetReliabilityProfile(ctx context.Context, tenantID, customerID string) (*models.ReliabilityProfile, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReliabilityProfile), args.Error(1)
}

// MockMaintenanceAppService is a mock implementation of service.MaintenanceAppService
type MockMaintenanceAppService struct {
	mock.Mock
}

func (m *MockMaintenanceAppService) RunCleanStreakJob(ctx context.Context, batchSize int) (*dto.CleanStreakResult, error) {
	args := m.Called(ctx, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CleanStreakResult), args.Error(1)
}

func (m *MockMaintenanceAppService) MergeIdentities(ctx context.Context, req *dto.MergeIdentitiesRequest) (*dto.NetworkIdentityDTO, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NetworkIdentityDTO), args.Error(1)
}

func (m *MockMaintenanceAppService) TierReport(ctx context.Context) (*dto.TierReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TierReport), args.Error(1)
}

// MockBusinessAppService is a mock implementation of service.BusinessAppService
type MockBusinessAppService struct {
	mock.Mock
}

func (m *MockBusinessAppService) CreateBusiness(ctx context.Context, req *dto.CreateBusinessRequest) (*models.Business, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

func (m *MockBusinessAppService) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Business), args.Error(1)
}

func (m *MockBusinessAppService) ListBusinesses(ctx context.Context, page, pageSize int) ([]*models.Business, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Business), args.Error(1)
}

func (m *MockBusinessAppService) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
