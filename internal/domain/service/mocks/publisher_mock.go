package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/crn/internal/domain/models"
)

// MockIncidentPublisher is a mock implementation of service.IncidentPublisher
type MockIncidentPublisher struct {
	mock.Mock
}

func (m *MockIncidentPublisher) PublishIncident(ctx context.Context, event *models.NetworkIncidentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRateLimiter is a mock implementation of service.RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, int, time.Time, error) {
	args := m.Called(ctx, scope, key, limit, window)
	return args.Bool(0), args.Int(1), args.Get(2).(time.Time), args.Error(3)
}
