package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/port"
)

// IntakeInput is the DTO for an upload as received from the form.
type IntakeInput struct {
	CorrelationID    string
	DownloadFilename string
	Title            string
	Description      string
	File             io.Reader
	DeclaredMimeType string
	DeclaredSize     int64
}

// UploadIntake validates an upload before any side effect and hands it to
// the PublicationService.
type UploadIntake interface {
	Submit(ctx context.Context, input IntakeInput) (*domain.PublicationRecord, error)
}

type uploadIntake struct {
	publications PublicationService
	inspector    port.PDFInspector
	cfg          *config.IntakeConfig
	logger       *slog.Logger
}

// NewUploadIntake creates a new UploadIntake implementation.
func NewUploadIntake(
	publications PublicationService,
	inspector port.PDFInspector,
	cfg *config.IntakeConfig,
	logger *slog.Logger,
) UploadIntake {
	return &uploadIntake{
		publications: publications,
		inspector:    inspector,
		cfg:          cfg,
		logger:       logger,
	}
}

func (i *uploadIntake) Submit(ctx context.Context, input IntakeInput) (*domain.PublicationRecord, error) {
	input.CorrelationID = strings.TrimSpace(input.CorrelationID)
	input.DownloadFilename = strings.TrimSpace(input.DownloadFilename)
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	if err := checkRequired(input); err != nil {
		return nil, err
	}

	mediaType, _, err := mime.ParseMediaType(input.DeclaredMimeType)
	if err != nil || mediaType != domain.PDFContentType {
		return nil, domain.InvalidInput("only PDF files are allowed")
	}

	maxBytes := i.cfg.MaxBytes()
	if maxBytes > 0 && input.DeclaredSize > maxBytes {
		return nil, tooLarge(maxBytes)
	}

	data, err := readLimited(input.File, maxBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.InvalidInput("file is empty")
	}
	if input.DeclaredSize > 0 && input.DeclaredSize != int64(len(data)) {
		return nil, domain.InvalidInput("declared size %d does not match received %d bytes", input.DeclaredSize, len(data))
	}

	// Magic-byte check before handing the payload to the PDF parser.
	if detected := http.DetectContentType(data); detected != domain.PDFContentType {
		return nil, domain.InvalidInput("file content is not a PDF (detected %s)", detected)
	}
	info, err := i.inspector.Inspect(data)
	if err != nil {
		return nil, domain.InvalidInput("unreadable PDF: %v", err)
	}

	i.logger.Info("uploadIntake.Submit: accepted upload",
		slog.String("correlation_id", input.CorrelationID),
		slog.Int("bytes", len(data)),
		slog.Int("pages", info.PageCount),
	)

	return i.publications.Publish(ctx, PublishInput{
		CorrelationID:    input.CorrelationID,
		DownloadFilename: input.DownloadFilename,
		Title:            input.Title,
		Description:      input.Description,
		Body:             data,
		MimeType:         mediaType,
		PageCount:        info.PageCount,
	})
}

func checkRequired(input IntakeInput) error {
	switch {
	case input.CorrelationID == "":
		return domain.InvalidInput("correlation id is required")
	case !domain.ValidCorrelationID(input.CorrelationID):
		return domain.InvalidInput("correlation id %q contains characters not allowed in a storage key", input.CorrelationID)
	case input.DownloadFilename == "":
		return domain.InvalidInput("download filename is required")
	case input.Title == "":
		return domain.InvalidInput("title is required")
	case input.Description == "":
		return domain.InvalidInput("description is required")
	case input.File == nil:
		return domain.InvalidInput("no file uploaded")
	}
	return nil
}

// readLimited reads at most maxBytes (no limit when maxBytes <= 0).
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading upload: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	return data, nil
}

func tooLarge(maxBytes int64) error {
	return &domain.Error{
		Kind:    domain.KindTooLarge,
		Message: fmt.Sprintf("file exceeds maximum allowed size of %d MB", maxBytes/(1024*1024)),
	}
}
