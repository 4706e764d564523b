package noop_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/alert/noop"
	"folio/internal/domain"
)

func TestNoopAlerter_LogsInconsistency(t *testing.T) {
	var buf bytes.Buffer
	alerter := noop.NewNoopAlerter(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := alerter.NotifyInconsistency(context.Background(), domain.Inconsistency{
		Operation:         domain.OperationRetract,
		CorrelationID:     "A123",
		Key:               "A123.pdf",
		Slug:              "abc123",
		PublicationExists: true,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"correlation_id":"A123"`)
	assert.Contains(t, buf.String(), `"publication_exists":true`)
}
