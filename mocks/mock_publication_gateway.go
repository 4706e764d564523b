package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"folio/internal/domain"
)

// MockPublicationGateway is a mock implementation of service.PublicationGateway.
type MockPublicationGateway struct {
	mock.Mock
}

func (m *MockPublicationGateway) CreateDraft(ctx context.Context, sourceURL, title, description string) (string, error) {
	args := m.Called(ctx, sourceURL, title, description)
	return args.String(0), args.Error(1)
}

func (m *MockPublicationGateway) AwaitConversion(ctx context.Context, draftID string, pollInterval time.Duration, maxAttempts int) error {
	args := m.Called(ctx, draftID, pollInterval, maxAttempts)
	return args.Error(0)
}

func (m *MockPublicationGateway) Publish(ctx context.Context, draftID string) (string, error) {
	args := m.Called(ctx, draftID)
	return args.String(0), args.Error(1)
}

func (m *MockPublicationGateway) FetchMetadata(ctx context.Context, publicationID string) (*domain.PublicationRef, error) {
	args := m.Called(ctx, publicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicationRef), args.Error(1)
}

func (m *MockPublicationGateway) Delete(ctx context.Context, publicationID string) error {
	args := m.Called(ctx, publicationID)
	return args.Error(0)
}
