package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/metrics"
	"folio/internal/port"
)

// PublicationGateway wraps the asynchronous publishing backend. A draft moves
// CREATED -> CONVERTING -> DONE | FAILED; only a DONE draft may be published.
type PublicationGateway interface {
	CreateDraft(ctx context.Context, sourceURL, title, description string) (string, error)
	AwaitConversion(ctx context.Context, draftID string, pollInterval time.Duration, maxAttempts int) error
	Publish(ctx context.Context, draftID string) (string, error)
	FetchMetadata(ctx context.Context, publicationID string) (*domain.PublicationRef, error)
	Delete(ctx context.Context, publicationID string) error
}

type cachedPublication struct {
	ref      domain.PublicationRef
	storedAt time.Time
}

type publicationGateway struct {
	backend  port.PublishingBackend
	clock    port.Clock
	access   string
	cache    *lru.Cache[string, cachedPublication]
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewPublicationGateway creates a new PublicationGateway implementation.
// Metadata lookups are cached when both MetadataCacheTTL and MetadataCacheSize are positive.
func NewPublicationGateway(
	backend port.PublishingBackend,
	clk port.Clock,
	cfg *config.PublicationConfig,
	logger *slog.Logger,
) PublicationGateway {
	g := &publicationGateway{
		backend: backend,
		clock:   clk,
		access:  cfg.Access,
		logger:  logger,
	}
	if cfg.MetadataCacheTTL > 0 && cfg.MetadataCacheSize > 0 {
		cache, err := lru.New[string, cachedPublication](cfg.MetadataCacheSize)
		if err == nil {
			g.cache = cache
			g.cacheTTL = cfg.MetadataCacheTTL
		}
	}
	return g
}

func (g *publicationGateway) CreateDraft(ctx context.Context, sourceURL, title, description string) (string, error) {
	if sourceURL == "" {
		return "", domain.InvalidInput("source url is required")
	}

	slug, err := g.backend.CreateDraft(ctx, port.DraftInput{
		FileURL:      sourceURL,
		Title:        title,
		Description:  description,
		Access:       g.access,
		Type:         "editorial",
		Downloadable: true,
	})
	if err != nil {
		return "", upstreamDomainError(domain.KindDraftCreation, domain.BackendPublication,
			"creating draft", err)
	}
	if slug == "" {
		return "", domain.NewError(domain.KindProtocol, domain.BackendPublication, "draft id missing")
	}
	return slug, nil
}

// conversionPoll is the per-draft poll state machine. Every observation
// consumes one attempt; it is finished once the state is terminal or the
// attempts are exhausted.
type conversionPoll struct {
	draftID     string
	maxAttempts int
	attempt     int
	state       domain.ConversionState
}

func newConversionPoll(draftID string, maxAttempts int) *conversionPoll {
	return &conversionPoll{draftID: draftID, maxAttempts: maxAttempts, state: domain.ConversionPending}
}

func (p *conversionPoll) observe(state domain.ConversionState) {
	p.attempt++
	p.state = state
}

func (p *conversionPoll) finished() bool {
	return p.state.Terminal() || p.attempt >= p.maxAttempts
}

func (p *conversionPoll) result() error {
	switch p.state {
	case domain.ConversionDone:
		return nil
	case domain.ConversionFailed:
		return domain.NewError(domain.KindConversionFailed, domain.BackendPublication,
			fmt.Sprintf("draft %s conversion failed on attempt %d", p.draftID, p.attempt))
	default:
		return domain.NewError(domain.KindConversionTimeout, domain.BackendPublication,
			fmt.Sprintf("draft %s not converted after %d attempts", p.draftID, p.attempt))
	}
}

// AwaitConversion waits pollInterval, then checks the draft, until it is DONE,
// FAILED, or maxAttempts checks have been made. A failed check aborts the wait.
func (g *publicationGateway) AwaitConversion(ctx context.Context, draftID string, pollInterval time.Duration, maxAttempts int) error {
	if maxAttempts <= 0 {
		return domain.InvalidInput("max poll attempts must be positive, got %d", maxAttempts)
	}

	poll := newConversionPoll(draftID, maxAttempts)
	for !poll.finished() {
		select {
		case <-ctx.Done():
			return &domain.Error{
				Kind:    domain.KindCanceled,
				Backend: domain.BackendPublication,
				Message: fmt.Sprintf("waiting for draft %s after %d attempts", draftID, poll.attempt),
				Err:     ctx.Err(),
			}
		case <-g.clock.After(pollInterval):
		}

		draft, err := g.backend.GetDraft(ctx, draftID)
		if err != nil {
			return upstreamDomainError(domain.KindTransport, domain.BackendPublication,
				fmt.Sprintf("polling draft %s (attempt %d)", draftID, poll.attempt+1), err)
		}

		state := domain.ParseConversionState(draft.ConversionStatus)
		poll.observe(state)
		metrics.ConversionPollsTotal.WithLabelValues(string(state)).Inc()

		g.logger.Debug("publicationGateway.AwaitConversion: polled draft",
			slog.String("slug", draftID),
			slog.Int("attempt", poll.attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.String("status", draft.ConversionStatus),
		)
	}
	return poll.result()
}

func (g *publicationGateway) Publish(ctx context.Context, draftID string) (string, error) {
	if draftID == "" {
		return "", domain.NewError(domain.KindProtocol, domain.BackendPublication, "draft id missing")
	}
	location, err := g.backend.PublishDraft(ctx, draftID)
	if err != nil {
		return "", upstreamDomainError(domain.KindPublish, domain.BackendPublication,
			fmt.Sprintf("publishing draft %s", draftID), err)
	}
	if location == "" {
		return "", domain.NewError(domain.KindProtocol, domain.BackendPublication,
			fmt.Sprintf("public location missing for draft %s", draftID))
	}
	return location, nil
}

func (g *publicationGateway) FetchMetadata(ctx context.Context, publicationID string) (*domain.PublicationRef, error) {
	if g.cache != nil {
		if entry, ok := g.cache.Get(publicationID); ok {
			if g.clock.Now().Sub(entry.storedAt) < g.cacheTTL {
				ref := entry.ref
				return &ref, nil
			}
			g.cache.Remove(publicationID)
		}
	}

	pub, err := g.backend.GetPublication(ctx, publicationID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Backend: domain.BackendPublication,
				Message: fmt.Sprintf("publication %s not found", publicationID), Err: err}
		}
		return nil, upstreamDomainError(domain.KindTransport, domain.BackendPublication,
			fmt.Sprintf("fetching publication %s", publicationID), err)
	}

	ref := domain.PublicationRef{
		Exists:      true,
		Slug:        publicationID,
		URL:         pub.PublicLocation,
		Title:       pub.Title,
		Description: pub.Description,
		CreatedAt:   pub.Created,
	}
	if g.cache != nil {
		g.cache.Add(publicationID, cachedPublication{ref: ref, storedAt: g.clock.Now()})
	}
	return &ref, nil
}

// Delete removes a publication. Publishing backends commonly answer deletes
// with an empty body, so a non-success status without a body counts as deleted.
func (g *publicationGateway) Delete(ctx context.Context, publicationID string) error {
	if g.cache != nil {
		defer g.cache.Remove(publicationID)
	}

	err := g.backend.DeletePublication(ctx, publicationID)
	if err == nil {
		return nil
	}
	if errors.Is(err, port.ErrNotFound) {
		return &domain.Error{Kind: domain.KindNotFound, Backend: domain.BackendPublication,
			Message: fmt.Sprintf("publication %s not found", publicationID), Err: err}
	}
	if status, body, ok := port.AsUpstream(err); ok && body == "" {
		g.logger.Warn("publicationGateway.Delete: non-success status with empty body, treating as deleted",
			slog.String("slug", publicationID),
			slog.Int("status", status),
		)
		return nil
	}
	return upstreamDomainError(domain.KindRetraction, domain.BackendPublication,
		fmt.Sprintf("deleting publication %s", publicationID), err)
}
