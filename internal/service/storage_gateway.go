package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/port"
)

// StorageGateway wraps the object store with the semantics the publication
// workflow relies on: not-found is a value, not an error, and every write
// failure carries the upstream status and response text.
type StorageGateway interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body []byte, downloadFilename string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Ping(ctx context.Context) error
}

type storageGateway struct {
	storage port.ObjectStorage
	cfg     *config.StorageConfig
	logger  *slog.Logger
}

// NewStorageGateway creates a new StorageGateway implementation.
func NewStorageGateway(storage port.ObjectStorage, cfg *config.StorageConfig, logger *slog.Logger) StorageGateway {
	return &storageGateway{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

func (g *storageGateway) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := g.storage.HeadObject(ctx, g.cfg.Bucket, key)
	if err != nil {
		return false, upstreamDomainError(domain.KindTransport, domain.BackendStorage,
			fmt.Sprintf("checking %s", key), err)
	}
	return exists, nil
}

func (g *storageGateway) Put(ctx context.Context, key string, body []byte, downloadFilename string) (string, error) {
	g.logger.Info("storageGateway.Put: uploading object",
		slog.String("bucket", g.cfg.Bucket),
		slog.String("key", key),
		slog.Int("bytes", len(body)),
	)

	_, err := g.storage.PutObject(ctx, port.PutObjectInput{
		Bucket:             g.cfg.Bucket,
		Key:                key,
		Body:               bytes.NewReader(body),
		ContentType:        domain.PDFContentType,
		ContentDisposition: ContentDisposition(downloadFilename),
		Size:               int64(len(body)),
	})
	if err != nil {
		return "", upstreamDomainError(domain.KindStorageWrite, domain.BackendStorage,
			fmt.Sprintf("uploading %s", key), err)
	}
	return g.URL(key), nil
}

func (g *storageGateway) Delete(ctx context.Context, key string) error {
	if err := g.storage.DeleteObject(ctx, g.cfg.Bucket, key); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return &domain.Error{Kind: domain.KindNotFound, Backend: domain.BackendStorage,
				Message: fmt.Sprintf("%s not found", key), Err: err}
		}
		return upstreamDomainError(domain.KindRetraction, domain.BackendStorage,
			fmt.Sprintf("deleting %s", key), err)
	}
	return nil
}

// URL returns the deterministic public URL for key.
func (g *storageGateway) URL(key string) string {
	return g.cfg.BaseURL() + "/" + key
}

func (g *storageGateway) Ping(ctx context.Context) error {
	return g.storage.HeadBucket(ctx, g.cfg.Bucket)
}

// ContentDisposition builds the attachment hint served with the stored PDF.
func ContentDisposition(downloadFilename string) string {
	name := strings.TrimSpace(downloadFilename)
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "", `\`, "").Replace(name)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}

// upstreamDomainError converts an adapter error into a structured domain error,
// keeping the upstream status and body verbatim.
func upstreamDomainError(kind domain.ErrorKind, backend domain.Backend, msg string, err error) *domain.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = domain.KindCanceled
	}
	de := &domain.Error{Kind: kind, Backend: backend, Message: msg, Err: err}
	if status, body, ok := port.AsUpstream(err); ok {
		de.Status = status
		de.Body = body
	}
	return de
}
