package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"folio/internal/domain"
	"folio/internal/service"
)

// MockPublicationService is a mock implementation of service.PublicationService.
type MockPublicationService struct {
	mock.Mock
}

func (m *MockPublicationService) Publish(ctx context.Context, input service.PublishInput) (*domain.PublicationRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicationRecord), args.Error(1)
}

func (m *MockPublicationService) Validate(ctx context.Context, ref domain.RecordRef) (*domain.ValidationResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

func (m *MockPublicationService) Retract(ctx context.Context, ref domain.RecordRef) (*domain.RetractResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RetractResult), args.Error(1)
}

func (m *MockPublicationService) RetractStorageOnly(ctx context.Context, correlationID string) (*domain.RetractResult, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RetractResult), args.Error(1)
}

func (m *MockPublicationService) EstimateWait(sizeBytes int64) int {
	args := m.Called(sizeBytes)
	return args.Int(0)
}
