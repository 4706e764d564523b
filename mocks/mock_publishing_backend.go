package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"folio/internal/port"
)

// MockPublishingBackend is a mock implementation of port.PublishingBackend.
type MockPublishingBackend struct {
	mock.Mock
}

func (m *MockPublishingBackend) CreateDraft(ctx context.Context, input port.DraftInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockPublishingBackend) GetDraft(ctx context.Context, slug string) (*port.Draft, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Draft), args.Error(1)
}

func (m *MockPublishingBackend) PublishDraft(ctx context.Context, slug string) (string, error) {
	args := m.Called(ctx, slug)
	return args.String(0), args.Error(1)
}

func (m *MockPublishingBackend) GetPublication(ctx context.Context, slug string) (*port.Publication, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Publication), args.Error(1)
}

func (m *MockPublishingBackend) DeletePublication(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}
