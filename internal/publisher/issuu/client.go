package issuu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"folio/internal/config"
	"folio/internal/port"
)

const defaultBaseURL = "https://api.issuu.com/v2"

// Client implements port.PublishingBackend using the Issuu v2 REST API.
type Client struct {
	token   string
	baseURL string
	access  string
	client  *http.Client
}

// NewClient creates an Issuu client from the publication config.
func NewClient(cfg *config.PublicationConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewClientWithEndpoint(cfg, baseURL)
}

// NewClientWithEndpoint creates a client pointing at a custom API base URL (for testing).
func NewClientWithEndpoint(cfg *config.PublicationConfig, baseURL string) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	access := cfg.Access
	if access == "" {
		access = "PUBLIC"
	}
	return &Client{
		token:   cfg.APIToken,
		baseURL: strings.TrimRight(baseURL, "/"),
		access:  access,
		client:  &http.Client{Timeout: timeout},
	}
}

type draftInfo struct {
	File              int    `json:"file"`
	Access            string `json:"access"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Preview           bool   `json:"preview"`
	Type              string `json:"type"`
	ShowDetectedLinks bool   `json:"showDetectedLinks"`
	Downloadable      bool   `json:"downloadable"`
}

type createDraftRequest struct {
	ConfirmCopyright bool      `json:"confirmCopyright"`
	FileURL          string    `json:"fileUrl"`
	Info             draftInfo `json:"info"`
}

type draftResponse struct {
	Slug     string `json:"slug"`
	FileInfo *struct {
		ConversionStatus string `json:"conversionStatus"`
	} `json:"fileInfo"`
}

type publishResponse struct {
	PublicLocation string `json:"publicLocation"`
}

type publicationResponse struct {
	Slug           string `json:"slug"`
	PublicLocation string `json:"publicLocation"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Created        string `json:"created"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) CreateDraft(ctx context.Context, input port.DraftInput) (string, error) {
	access := input.Access
	if access == "" {
		access = c.access
	}
	docType := input.Type
	if docType == "" {
		docType = "editorial"
	}
	body := createDraftRequest{
		ConfirmCopyright: true,
		FileURL:          input.FileURL,
		Info: draftInfo{
			File:              0,
			Access:            access,
			Title:             input.Title,
			Description:       input.Description,
			Preview:           false,
			Type:              docType,
			ShowDetectedLinks: false,
			Downloadable:      input.Downloadable,
		},
	}

	var resp draftResponse
	if err := c.do(ctx, http.MethodPost, "/drafts", body, &resp); err != nil {
		return "", fmt.Errorf("issuu create draft: %w", err)
	}
	return resp.Slug, nil
}

func (c *Client) GetDraft(ctx context.Context, slug string) (*port.Draft, error) {
	var resp draftResponse
	if err := c.do(ctx, http.MethodGet, "/drafts/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, fmt.Errorf("issuu get draft %s: %w", slug, err)
	}
	draft := &port.Draft{Slug: slug}
	if resp.FileInfo != nil {
		draft.ConversionStatus = resp.FileInfo.ConversionStatus
	}
	return draft, nil
}

func (c *Client) PublishDraft(ctx context.Context, slug string) (string, error) {
	var resp publishResponse
	if err := c.do(ctx, http.MethodPost, "/drafts/"+url.PathEscape(slug)+"/publish", nil, &resp); err != nil {
		return "", fmt.Errorf("issuu publish draft %s: %w", slug, err)
	}
	return resp.PublicLocation, nil
}

func (c *Client) GetPublication(ctx context.Context, slug string) (*port.Publication, error) {
	var resp publicationResponse
	if err := c.do(ctx, http.MethodGet, "/publications/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, fmt.Errorf("issuu get publication %s: %w", slug, err)
	}
	pub := &port.Publication{
		Slug:           slug,
		PublicLocation: resp.PublicLocation,
		Title:          resp.Title,
		Description:    resp.Description,
	}
	if resp.Created != "" {
		if t, err := time.Parse(time.RFC3339, resp.Created); err == nil {
			pub.Created = &t
		}
	}
	return pub, nil
}

func (c *Client) DeletePublication(ctx context.Context, slug string) error {
	if err := c.do(ctx, http.MethodDelete, "/publications/"+url.PathEscape(slug), nil, nil); err != nil {
		return fmt.Errorf("issuu delete publication %s: %w", slug, err)
	}
	return nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// Non-2xx responses become *port.UpstreamError; 404 additionally wraps port.ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		bodyBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling issuu API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ue := &port.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			ue.Err = errors.New(apiErr.Message)
		}
		if resp.StatusCode == http.StatusNotFound {
			ue.Err = port.ErrNotFound
		}
		return ue
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshaling response: %w (raw: %s)", err, truncate(string(respBody), 500))
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
