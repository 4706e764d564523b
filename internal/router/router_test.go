package router_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"folio/internal/domain"
	"folio/internal/handler"
	"folio/internal/router"
	"folio/mocks"
)

func setupRouter() (*gin.Engine, *mocks.MockPublicationService, *mocks.MockStorageGateway) {
	gin.SetMode(gin.TestMode)
	publications := new(mocks.MockPublicationService)
	storage := new(mocks.MockStorageGateway)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := router.Setup(logger, []string{"https://auctions.example.com"},
		handler.NewPublicationHandler(new(mocks.MockUploadIntake), publications),
		handler.NewHealthHandler(storage),
	)
	return r, publications, storage
}

func TestRouter_Routes(t *testing.T) {
	r, publications, storage := setupRouter()

	storage.On("Ping", mock.Anything).Return(nil)
	publications.On("EstimateWait", int64(1048576)).Return(60)
	publications.On("Validate", mock.Anything, domain.RecordRef{CorrelationID: "A123", Slug: "abc123"}).
		Return(&domain.ValidationResult{Success: true}, nil)
	publications.On("RetractStorageOnly", mock.Anything, "A123").
		Return(&domain.RetractResult{Success: true}, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/estimate?size=1048576", http.StatusOK},
		{http.MethodGet, "/api/v1/publications/A123?slug=abc123", http.StatusOK},
		{http.MethodDelete, "/api/v1/publications/A123/storage", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, tt.path, http.NoBody)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
