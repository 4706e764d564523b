package port

import (
	"context"

	"folio/internal/domain"
)

// Alerter notifies operators about records left on only one backend.
type Alerter interface {
	NotifyInconsistency(ctx context.Context, inc domain.Inconsistency) error
}
