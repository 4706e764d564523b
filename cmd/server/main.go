package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"folio/internal/alert/noop"
	"folio/internal/alert/ses"
	"folio/internal/clock"
	"folio/internal/config"
	"folio/internal/handler"
	"folio/internal/pdf"
	"folio/internal/port"
	"folio/internal/publisher/issuu"
	"folio/internal/router"
	"folio/internal/service"
	s3storage "folio/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.SetupLogger(&cfg.Log)
	logger.Info("folio starting",
		slog.String("environment", cfg.Server.Environment),
		slog.String("bucket", cfg.Storage.Bucket),
		slog.String("region", cfg.Storage.Region),
		slog.Duration("poll_interval", cfg.Publication.PollInterval()),
		slog.Int("max_poll_attempts", cfg.Publication.MaxPollAttempts),
	)

	// Initialize backends
	s3Client, err := s3storage.NewS3Client(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	issuuClient := issuu.NewClient(&cfg.Publication)
	clk := clock.New()

	var alerter port.Alerter
	if cfg.Alert.Provider == "ses" {
		alerter, err = ses.NewSESAlerter(cfg.Alert.Region, cfg.Alert.FromAddress, cfg.Alert.ToAddresses)
		if err != nil {
			return fmt.Errorf("failed to initialize SES alerter: %w", err)
		}
		logger.Info("inconsistency alerts via SES", slog.Any("to", cfg.Alert.ToAddresses))
	} else {
		alerter = noop.NewNoopAlerter(logger)
	}

	// Initialize services
	storageGW := service.NewStorageGateway(s3Client, &cfg.Storage, logger)
	publicationGW := service.NewPublicationGateway(issuuClient, clk, &cfg.Publication, logger)
	publicationSvc := service.NewPublicationService(
		storageGW, publicationGW, alerter, clk, service.NewPublicationServiceConfig(cfg), logger,
	)
	intake := service.NewUploadIntake(publicationSvc, pdf.NewInspector(), &cfg.Intake, logger)

	// Initialize handlers
	pubH := handler.NewPublicationHandler(intake, publicationSvc)
	healthH := handler.NewHealthHandler(storageGW)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(logger, cfg.CORS.AllowedOrigins, pubH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// In-flight publishes may be mid-conversion; give them the write timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
