package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStorageGateway is a mock implementation of service.StorageGateway.
type MockStorageGateway struct {
	mock.Mock
}

func (m *MockStorageGateway) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorageGateway) Put(ctx context.Context, key string, body []byte, downloadFilename string) (string, error) {
	args := m.Called(ctx, key, body, downloadFilename)
	return args.String(0), args.Error(1)
}

func (m *MockStorageGateway) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorageGateway) URL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockStorageGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
