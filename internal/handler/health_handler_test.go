package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"folio/internal/handler"
	"folio/mocks"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := handler.NewHealthHandler(new(mocks.MockStorageGateway))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", http.NoBody)

	h.Liveness(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_Readiness(t *testing.T) {
	storage := new(mocks.MockStorageGateway)
	h := handler.NewHealthHandler(storage)

	storage.On("Ping", mock.Anything).Return(nil).Once()
	storage.On("Ping", mock.Anything).Return(errors.New("AccessDenied")).Once()

	for _, want := range []int{http.StatusOK, http.StatusServiceUnavailable} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)

		h.Readiness(c)

		assert.Equal(t, want, w.Code)
	}
}
