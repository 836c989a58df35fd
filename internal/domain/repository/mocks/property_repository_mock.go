package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/crn/internal/domain/models"
)

// MockPropertyRepository is a mock implementation of repository.PropertyRepository
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Upsert(ctx context.Context, records []*models.PropertyRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id string) (*models.PropertyRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyRecord), args.Error(1)
}

func (m *MockPropertyRepository) SearchByAddress(ctx context.Context, pattern string, limit int) ([]*models.PropertyRecord, error) {
	args := m.Called(ctx, pattern, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PropertyRecord), args.Error(1)
}

func (m *MockPropertyRepository) SearchByOwner(ctx context.Context, terms []string, county string, limit int) ([]*models.PropertyRecord, error) {
	args := m.Called(ctx, terms, county, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PropertyRecord), args.Error(1)
}

func (m *MockPropertyRepository) ListUnlinkedResidential(ctx context.Context, filter models.PropertyFilter, limit int) ([]*models.PropertyRecord, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PropertyRecord), args.Error(1)
}

func (m *MockPropertyRepository) LinkExists(ctx context.Context, propertyID, identityID string) (bool, error) {
	args := m.Called(ctx, propertyID, identityID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) HasAnyLink(ctx context.Context, propertyID string) (bool, error) {
	args := m.Called(ctx, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) CreateLink(ctx context.Context, link *models.PropertyCustomerLink) (bool, error) {
	args := m.Called(ctx, link)
	return args.Bool(0), args.Error(1)
}
