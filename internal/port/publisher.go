package port

import (
	"context"
	"time"
)

// DraftInput is the metadata sent when creating a draft from a hosted file.
type DraftInput struct {
	FileURL      string
	Title        string
	Description  string
	Access       string
	Type         string
	Downloadable bool
}

// Draft is an uploaded-but-unpublished document on the publishing backend.
type Draft struct {
	Slug             string
	ConversionStatus string
}

// Publication is a published document's metadata.
type Publication struct {
	Slug           string
	PublicLocation string
	Title          string
	Description    string
	Created        *time.Time
}

// PublishingBackend abstracts the asynchronous document publishing service.
type PublishingBackend interface {
	// CreateDraft returns the new draft's slug, which may be empty if the
	// upstream response omitted it.
	CreateDraft(ctx context.Context, input DraftInput) (string, error)
	GetDraft(ctx context.Context, slug string) (*Draft, error)
	// PublishDraft returns the public location of the published document.
	PublishDraft(ctx context.Context, slug string) (string, error)
	// GetPublication returns ErrNotFound when the slug is unknown.
	GetPublication(ctx context.Context, slug string) (*Publication, error)
	DeletePublication(ctx context.Context, slug string) error
}
