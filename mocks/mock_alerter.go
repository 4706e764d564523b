package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"folio/internal/domain"
)

// MockAlerter is a mock implementation of port.Alerter.
type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) NotifyInconsistency(ctx context.Context, inc domain.Inconsistency) error {
	args := m.Called(ctx, inc)
	return args.Error(0)
}
