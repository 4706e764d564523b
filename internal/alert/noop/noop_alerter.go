package noop

import (
	"context"
	"log/slog"

	"folio/internal/domain"
	"folio/internal/port"
)

type noopAlerter struct {
	logger *slog.Logger
}

// NewNoopAlerter creates an Alerter that only logs.
func NewNoopAlerter(logger *slog.Logger) port.Alerter {
	return &noopAlerter{logger: logger}
}

func (a *noopAlerter) NotifyInconsistency(_ context.Context, inc domain.Inconsistency) error {
	a.logger.Warn("[NOOP ALERT] record left on one backend",
		slog.String("operation", inc.Operation),
		slog.String("correlation_id", inc.CorrelationID),
		slog.String("key", inc.Key),
		slog.String("slug", inc.Slug),
		slog.Bool("storage_exists", inc.StorageExists),
		slog.Bool("publication_exists", inc.PublicationExists),
		slog.String("detail", inc.Detail),
	)
	return nil
}
