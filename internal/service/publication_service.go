package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/metrics"
	"folio/internal/port"
)

// PublishInput is the DTO for a publish request after intake validation.
type PublishInput struct {
	CorrelationID    string
	DownloadFilename string
	Title            string
	Description      string
	Body             []byte
	MimeType         string
	PageCount        int
}

// PublicationService orchestrates the storage and publication backends.
//
// Publish never rolls back: when a step after the storage write fails, the
// returned record is storage-complete and publication-incomplete, returned
// together with the error, and operators are alerted. Callers choose between
// Retract, RetractStorageOnly and resubmitting.
//
// No per-correlation-id locking is done; two concurrent Publish calls for the
// same id can both pass the existence check. Serialize upstream if that matters.
type PublicationService interface {
	Publish(ctx context.Context, input PublishInput) (*domain.PublicationRecord, error)
	Validate(ctx context.Context, ref domain.RecordRef) (*domain.ValidationResult, error)
	Retract(ctx context.Context, ref domain.RecordRef) (*domain.RetractResult, error)
	RetractStorageOnly(ctx context.Context, correlationID string) (*domain.RetractResult, error)
	EstimateWait(sizeBytes int64) int
}

// PublicationServiceConfig holds the workflow's tunables.
type PublicationServiceConfig struct {
	PollInterval     time.Duration
	MaxPollAttempts  int
	PublishTimeout   time.Duration
	MinWaitSecs      int
	MaxWaitSecs      int
	MissingAsDeleted bool
}

// NewPublicationServiceConfig extracts workflow settings from the app config.
func NewPublicationServiceConfig(cfg *config.Config) PublicationServiceConfig {
	return PublicationServiceConfig{
		PollInterval:     cfg.Publication.PollInterval(),
		MaxPollAttempts:  cfg.Publication.MaxPollAttempts,
		PublishTimeout:   cfg.Publication.PublishTimeout,
		MinWaitSecs:      cfg.Intake.MinWaitSecs,
		MaxWaitSecs:      cfg.Intake.MaxWaitSecs,
		MissingAsDeleted: cfg.Retract.MissingAsDeleted,
	}
}

// alertTimeout bounds alert delivery, which runs detached from the request context.
const alertTimeout = 10 * time.Second

type publicationService struct {
	storage     StorageGateway
	publication PublicationGateway
	alerter     port.Alerter
	clock       port.Clock
	cfg         PublicationServiceConfig
	logger      *slog.Logger
}

// NewPublicationService creates a new PublicationService implementation.
func NewPublicationService(
	storage StorageGateway,
	publication PublicationGateway,
	alerter port.Alerter,
	clk port.Clock,
	cfg PublicationServiceConfig,
	logger *slog.Logger,
) PublicationService {
	return &publicationService{
		storage:     storage,
		publication: publication,
		alerter:     alerter,
		clock:       clk,
		cfg:         cfg,
		logger:      logger,
	}
}

// publishSaga is the request-scoped state of one Publish run.
type publishSaga struct {
	input  PublishInput
	key    string
	record *domain.PublicationRecord
	logger *slog.Logger
}

func (s *publicationService) Publish(ctx context.Context, input PublishInput) (*domain.PublicationRecord, error) {
	start := s.clock.Now()
	record, err := s.publish(ctx, input)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.SagaTotal.WithLabelValues(domain.OperationPublish, result).Inc()
	metrics.SagaDuration.WithLabelValues(domain.OperationPublish).Observe(s.clock.Now().Sub(start).Seconds())
	return record, err
}

func (s *publicationService) publish(ctx context.Context, input PublishInput) (*domain.PublicationRecord, error) {
	if err := validatePublishInput(input); err != nil {
		return nil, err
	}

	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}

	key := domain.StorageKey(input.CorrelationID)
	saga := &publishSaga{
		input: input,
		key:   key,
		record: &domain.PublicationRecord{
			CorrelationID:    input.CorrelationID,
			DownloadFilename: input.DownloadFilename,
			Title:            input.Title,
			Description:      input.Description,
			SizeBytes:        int64(len(input.Body)),
			PageCount:        input.PageCount,
			EstimatedWait:    s.EstimateWait(int64(len(input.Body))),
			Storage:          domain.StorageRef{Key: key},
		},
		logger: s.logger.With(
			slog.String("operation", domain.OperationPublish),
			slog.String("correlation_id", input.CorrelationID),
			slog.String("key", key),
		),
	}

	if err := s.reserveKey(ctx, saga); err != nil {
		return nil, err
	}
	if err := s.storeObject(ctx, saga); err != nil {
		return nil, err
	}
	// From here on the stored object is committed; failures return the partial record.
	if err := s.publishStored(ctx, saga); err != nil {
		s.reportInconsistency(ctx, domain.Inconsistency{
			Operation:     domain.OperationPublish,
			CorrelationID: input.CorrelationID,
			Key:           key,
			Slug:          saga.record.DraftID,
			StorageExists: true,
			Detail:        err.Error(),
		}, saga.logger)
		return saga.record, err
	}

	saga.logger.Info("publicationService.Publish: completed",
		slog.String("slug", saga.record.Publication.Slug),
		slog.String("url", saga.record.Publication.URL),
	)
	return saga.record, nil
}

func (s *publicationService) publishStored(ctx context.Context, saga *publishSaga) error {
	if err := s.createDraft(ctx, saga); err != nil {
		return err
	}
	if err := s.awaitConversion(ctx, saga); err != nil {
		return err
	}
	return s.publishDraft(ctx, saga)
}

func validatePublishInput(input PublishInput) error {
	switch {
	case strings.TrimSpace(input.CorrelationID) == "":
		return domain.InvalidInput("correlation id is required")
	case !domain.ValidCorrelationID(input.CorrelationID):
		return domain.InvalidInput("correlation id %q contains characters not allowed in a storage key", input.CorrelationID)
	case strings.TrimSpace(input.DownloadFilename) == "":
		return domain.InvalidInput("download filename is required")
	case strings.TrimSpace(input.Title) == "":
		return domain.InvalidInput("title is required")
	case strings.TrimSpace(input.Description) == "":
		return domain.InvalidInput("description is required")
	case input.MimeType != domain.PDFContentType:
		return domain.InvalidInput("only PDF files are allowed, got %q", input.MimeType)
	case len(input.Body) == 0:
		return domain.InvalidInput("file is empty")
	}
	return nil
}

func (s *publicationService) reserveKey(ctx context.Context, saga *publishSaga) error {
	exists, err := s.storage.Exists(ctx, saga.key)
	if err != nil {
		saga.logger.Error("publicationService.Publish: existence check failed", slog.Any("error", err))
		return err
	}
	if exists {
		saga.logger.Info("publicationService.Publish: rejected duplicate correlation id")
		return &domain.Error{
			Kind:    domain.KindConflict,
			Backend: domain.BackendStorage,
			Message: fmt.Sprintf("a file with correlation id %q already exists", saga.input.CorrelationID),
		}
	}
	return nil
}

func (s *publicationService) storeObject(ctx context.Context, saga *publishSaga) error {
	url, err := s.storage.Put(ctx, saga.key, saga.input.Body, saga.input.DownloadFilename)
	if err != nil {
		saga.logger.Error("publicationService.Publish: storage upload failed", slog.Any("error", err))
		return err
	}
	saga.record.Storage = domain.StorageRef{Exists: true, Key: saga.key, URL: url}
	saga.logger.Info("publicationService.Publish: stored object", slog.String("url", url))
	return nil
}

func (s *publicationService) createDraft(ctx context.Context, saga *publishSaga) error {
	draftID, err := s.publication.CreateDraft(ctx, saga.record.Storage.URL, saga.input.Title, saga.input.Description)
	if err != nil {
		saga.logger.Error("publicationService.Publish: draft creation failed, storage left in place", slog.Any("error", err))
		return err
	}
	saga.record.DraftID = draftID
	saga.record.ConversionState = domain.ConversionPending
	saga.logger = saga.logger.With(slog.String("slug", draftID))
	saga.logger.Info("publicationService.Publish: draft created",
		slog.Int("estimated_wait_secs", saga.record.EstimatedWait),
	)
	return nil
}

func (s *publicationService) awaitConversion(ctx context.Context, saga *publishSaga) error {
	err := s.publication.AwaitConversion(ctx, saga.record.DraftID, s.cfg.PollInterval, s.cfg.MaxPollAttempts)
	if err != nil {
		if errors.Is(err, domain.ErrConversionFailed) {
			saga.record.ConversionState = domain.ConversionFailed
		}
		saga.logger.Error("publicationService.Publish: conversion did not complete, storage left in place", slog.Any("error", err))
		return err
	}
	saga.record.ConversionState = domain.ConversionDone
	return nil
}

func (s *publicationService) publishDraft(ctx context.Context, saga *publishSaga) error {
	url, err := s.publication.Publish(ctx, saga.record.DraftID)
	if err != nil {
		saga.logger.Error("publicationService.Publish: publish failed, storage left in place", slog.Any("error", err))
		return err
	}
	now := s.clock.Now().UTC()
	saga.record.Publication = domain.PublicationRef{
		Exists:      true,
		Slug:        saga.record.DraftID,
		URL:         url,
		Title:       saga.input.Title,
		Description: saga.input.Description,
		CreatedAt:   &now,
	}
	return nil
}

// Validate probes both backends independently. Partial existence is a result,
// not an error; only malformed input fails the call.
func (s *publicationService) Validate(ctx context.Context, ref domain.RecordRef) (*domain.ValidationResult, error) {
	if !domain.ValidCorrelationID(ref.CorrelationID) {
		return nil, domain.InvalidInput("a valid correlation id is required")
	}

	key := domain.StorageKey(ref.CorrelationID)
	logger := s.logger.With(
		slog.String("operation", domain.OperationValidate),
		slog.String("correlation_id", ref.CorrelationID),
		slog.String("slug", ref.Slug),
	)

	result := &domain.ValidationResult{
		Storage:     s.probeStorage(ctx, key, logger),
		Publication: s.probePublication(ctx, ref.Slug, logger),
	}
	result.Success = result.Storage.Exists && result.Publication.Exists

	outcome := metrics.ResultSuccess
	if !result.Success {
		outcome = metrics.ResultPartial
	}
	metrics.SagaTotal.WithLabelValues(domain.OperationValidate, outcome).Inc()
	return result, nil
}

func (s *publicationService) probeStorage(ctx context.Context, key string, logger *slog.Logger) domain.StorageRef {
	exists, err := s.storage.Exists(ctx, key)
	switch {
	case err != nil:
		logger.Warn("publicationService.Validate: storage probe failed", slog.Any("error", err))
		return domain.StorageRef{Key: key, Error: err.Error()}
	case !exists:
		return domain.StorageRef{Key: key, Error: "file not found in storage"}
	default:
		return domain.StorageRef{Exists: true, Key: key, URL: s.storage.URL(key)}
	}
}

func (s *publicationService) probePublication(ctx context.Context, slug string, logger *slog.Logger) domain.PublicationRef {
	if slug == "" {
		return domain.PublicationRef{Error: "no publication slug supplied"}
	}
	ref, err := s.publication.FetchMetadata(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.PublicationRef{Slug: slug, Error: "publication not found"}
	case err != nil:
		logger.Warn("publicationService.Validate: publication probe failed", slog.Any("error", err))
		return domain.PublicationRef{Slug: slug, Error: err.Error()}
	default:
		return *ref
	}
}

// Retract deletes from both backends concurrently. Neither failure stops the
// other attempt; the result is successful only if both deletions succeeded.
func (s *publicationService) Retract(ctx context.Context, ref domain.RecordRef) (*domain.RetractResult, error) {
	if !domain.ValidCorrelationID(ref.CorrelationID) {
		return nil, domain.InvalidInput("a valid correlation id is required")
	}
	if strings.TrimSpace(ref.Slug) == "" {
		return nil, domain.InvalidInput("publication slug is required")
	}

	key := domain.StorageKey(ref.CorrelationID)
	logger := s.logger.With(
		slog.String("operation", domain.OperationRetract),
		slog.String("correlation_id", ref.CorrelationID),
		slog.String("key", key),
		slog.String("slug", ref.Slug),
	)

	result := &domain.RetractResult{Key: key}

	// Each goroutine writes its own field and always returns nil.
	var g errgroup.Group
	g.Go(func() error {
		result.Storage = s.outcome(domain.BackendStorage, s.storage.Delete(ctx, key), logger)
		return nil
	})
	g.Go(func() error {
		result.Publication = s.outcome(domain.BackendPublication, s.publication.Delete(ctx, ref.Slug), logger)
		return nil
	})
	_ = g.Wait()

	result.Success = result.Storage.Deleted && result.Publication.Deleted
	s.recordRetract(domain.OperationRetract, result, logger)

	if result.Storage.Deleted != result.Publication.Deleted {
		detail := result.Storage.Error
		if detail == "" {
			detail = result.Publication.Error
		}
		s.reportInconsistency(ctx, domain.Inconsistency{
			Operation:         domain.OperationRetract,
			CorrelationID:     ref.CorrelationID,
			Key:               key,
			Slug:              ref.Slug,
			StorageExists:     !result.Storage.Deleted,
			PublicationExists: !result.Publication.Deleted,
			Detail:            detail,
		}, logger)
	}
	return result, nil
}

// RetractStorageOnly removes only the stored object, for cleaning up after a
// Publish whose publication leg failed.
func (s *publicationService) RetractStorageOnly(ctx context.Context, correlationID string) (*domain.RetractResult, error) {
	if !domain.ValidCorrelationID(correlationID) {
		return nil, domain.InvalidInput("a valid correlation id is required")
	}

	key := domain.StorageKey(correlationID)
	logger := s.logger.With(
		slog.String("operation", domain.OperationRetractStorageOnly),
		slog.String("correlation_id", correlationID),
		slog.String("key", key),
	)

	result := &domain.RetractResult{
		Key:     key,
		Storage: s.outcome(domain.BackendStorage, s.storage.Delete(ctx, key), logger),
	}
	result.Success = result.Storage.Deleted
	s.recordRetract(domain.OperationRetractStorageOnly, result, logger)
	return result, nil
}

func (s *publicationService) outcome(backend domain.Backend, err error, logger *slog.Logger) domain.BackendOutcome {
	out := domain.BackendOutcome{Attempted: true}
	switch {
	case err == nil:
		out.Deleted = true
	case errors.Is(err, domain.ErrNotFound) && s.cfg.MissingAsDeleted:
		logger.Info("publicationService.Retract: already absent, counting as deleted", slog.String("backend", string(backend)))
		out.Deleted = true
	default:
		logger.Error("publicationService.Retract: deletion failed",
			slog.String("backend", string(backend)),
			slog.Any("error", err),
		)
		out.Error = err.Error()
	}

	result := metrics.ResultSuccess
	if !out.Deleted {
		result = metrics.ResultError
	}
	metrics.RetractBackendTotal.WithLabelValues(string(backend), result).Inc()
	return out
}

func (s *publicationService) recordRetract(operation string, result *domain.RetractResult, logger *slog.Logger) {
	outcome := metrics.ResultSuccess
	if result.Partial() {
		outcome = metrics.ResultPartial
		logger.Warn("publicationService.Retract: partial retraction",
			slog.Bool("storage_deleted", result.Storage.Deleted),
			slog.Bool("publication_deleted", result.Publication.Deleted),
		)
	}
	metrics.SagaTotal.WithLabelValues(operation, outcome).Inc()
}

// reportInconsistency alerts operators about a one-sided record. Delivery
// failures are logged and never change the operation's result.
func (s *publicationService) reportInconsistency(ctx context.Context, inc domain.Inconsistency, logger *slog.Logger) {
	inc.OccurredAt = s.clock.Now().UTC()

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()

	result := metrics.ResultSuccess
	if err := s.alerter.NotifyInconsistency(alertCtx, inc); err != nil {
		result = metrics.ResultError
		logger.Error("publicationService: inconsistency alert failed", slog.Any("error", err))
	}
	metrics.InconsistencyAlertsTotal.WithLabelValues(inc.Operation, result).Inc()
}

// EstimateWait returns the caller-facing conversion estimate in seconds. It is
// for messaging only and does not affect the poll loop.
func (s *publicationService) EstimateWait(sizeBytes int64) int {
	return EstimateWaitSeconds(sizeBytes, s.cfg.MinWaitSecs, s.cfg.MaxWaitSecs)
}

// EstimateWaitSeconds computes clamp(round(sizeMB * 60), minSecs, maxSecs).
func EstimateWaitSeconds(sizeBytes int64, minSecs, maxSecs int) int {
	mb := float64(sizeBytes) / (1024 * 1024)
	secs := int(math.Round(mb * 60))
	if secs < minSecs {
		return minSecs
	}
	if secs > maxSecs {
		return maxSecs
	}
	return secs
}
