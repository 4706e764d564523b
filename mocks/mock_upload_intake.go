package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"folio/internal/domain"
	"folio/internal/service"
)

// MockUploadIntake is a mock implementation of service.UploadIntake.
type MockUploadIntake struct {
	mock.Mock
}

func (m *MockUploadIntake) Submit(ctx context.Context, input service.IntakeInput) (*domain.PublicationRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicationRecord), args.Error(1)
}
