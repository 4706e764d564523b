package mocks

import (
	"github.com/stretchr/testify/mock"

	"folio/internal/port"
)

// MockPDFInspector is a mock implementation of port.PDFInspector.
type MockPDFInspector struct {
	mock.Mock
}

func (m *MockPDFInspector) Inspect(data []byte) (*port.PDFInfo, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.PDFInfo), args.Error(1)
}
