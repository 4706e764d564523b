package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folio/internal/handler"
	"folio/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *slog.Logger,
	allowedOrigins []string,
	pubH *handler.PublicationHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	v1.GET("/estimate", pubH.Estimate)

	publications := v1.Group("/publications")
	publications.POST("", pubH.Upload)
	publications.GET("/:correlation_id", pubH.Validate)
	publications.DELETE("/:correlation_id", pubH.Retract)
	publications.DELETE("/:correlation_id/storage", pubH.RetractStorage)

	return r
}
