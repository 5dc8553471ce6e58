// Package nuclia is a lightweight client for the Nuclia knowledge-box API.
//
// The client only covers the operations this service forwards: resource
// creation (URL and text ingestion), usermetadata patching, the /ask endpoint
// with a structured-answer JSON schema, query rephrasing, and resource
// listing. Crawling, chunking, embedding and answer generation all happen on
// the provider side.
//
// Every call is a single attempt; errors are terminal for that call and the
// caller decides how to surface them.
package nuclia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/security"
)

// ClientConfig holds the credentials and endpoints for a knowledge box.
type ClientConfig struct {
	WriterKey    string // service account key for mutations
	ReaderKey    string // service account key for queries
	KnowledgeBox string // knowledge box UID
	BaseURL      string // API root, e.g. https://aws-eu-central-1-1.rag.progress.cloud/api
}

// Client is a Nuclia knowledge-box API client.
// It uses security.HTTP to validate every outbound request.
type Client struct {
	cfg           ClientConfig
	httpValidator *security.HTTP
	httpClient    *http.Client
	logger        log.Logger
}

// New creates a new Nuclia API client.
// At least one of the two keys must be set; operations requiring the missing
// key fail with a descriptive error at call time.
func New(cfg ClientConfig, httpValidator *security.HTTP, logger log.Logger) (*Client, error) {
	if cfg.WriterKey == "" && cfg.ReaderKey == "" {
		return nil, fmt.Errorf("at least one Nuclia API key is required")
	}
	if cfg.KnowledgeBox == "" {
		return nil, fmt.Errorf("knowledge box UID is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if httpValidator == nil {
		return nil, fmt.Errorf("http validator is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		cfg:           cfg,
		httpValidator: httpValidator,
		httpClient:    httpValidator.CreateSafeHTTPClient(),
		logger:        logger,
	}, nil
}

// kbURL builds a knowledge-box scoped API URL.
func (c *Client) kbURL(path string) string {
	return fmt.Sprintf("%s/v1/kb/%s%s", c.cfg.BaseURL, c.cfg.KnowledgeBox, path)
}

// CreateLink asks Nuclia to fetch and index a remote URL.
// Returns the document id assigned to the new resource.
func (c *Client) CreateLink(ctx context.Context, uri, title string, metadata map[string]string) (string, error) {
	if title == "" {
		title = "Content from " + uri
	}

	req := createResourceRequest{
		Title:        title,
		Links:        map[string]LinkField{"link": {URI: uri}},
		UserMetadata: FormatMetadata(metadata),
	}

	var resp createResourceResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.kbURL("/resources"), c.cfg.WriterKey, req, &resp); err != nil {
		return "", fmt.Errorf("indexing URL: %w", err)
	}

	c.logger.Info("indexed URL", "document_id", resp.UUID, "url", uri)
	return resp.UUID, nil
}

// CreateText uploads a text or HTML document for indexing.
// format must be "PLAIN" or "HTML". Returns the assigned document id.
func (c *Client) CreateText(ctx context.Context, title, body, format, sourceURL string, metadata map[string]string) (string, error) {
	req := createResourceRequest{
		Title:        title,
		Texts:        map[string]TextField{"text": {Body: body, Format: format}},
		UserMetadata: FormatMetadata(metadata),
	}
	if sourceURL != "" {
		req.Origin = &Origin{
			SourceID: sourceURL,
			URL:      sourceURL,
			Created:  time.Now().Format(time.RFC3339),
		}
	}

	var resp createResourceResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.kbURL("/resources"), c.cfg.WriterKey, req, &resp); err != nil {
		return "", fmt.Errorf("uploading document: %w", err)
	}

	c.logger.Info("uploaded document", "document_id", resp.UUID, "title", title)
	return resp.UUID, nil
}

// PatchMetadata updates an existing resource's usermetadata.
// Empty metadata values are dropped; patching with nothing left is an error.
func (c *Client) PatchMetadata(ctx context.Context, documentID string, metadata map[string]string) error {
	formatted := FormatMetadata(metadata)
	if formatted == nil {
		return fmt.Errorf("no valid metadata provided to patch")
	}

	req := patchResourceRequest{UserMetadata: formatted}
	if err := c.makeRequest(ctx, http.MethodPatch, c.kbURL("/resource/"+documentID), c.cfg.WriterKey, req, nil); err != nil {
		return fmt.Errorf("patching resource %s: %w", documentID, err)
	}

	c.logger.Debug("patched resource metadata", "document_id", documentID, "fields", len(formatted.Fields))
	return nil
}

// AskOptions scopes an Ask call.
type AskOptions struct {
	// From/To restrict the answer to resources created in the inclusive range.
	From *time.Time
	To   *time.Time
}

// Ask queries the knowledge box through the /ask endpoint with a JSON schema
// describing the structured product answer. The model's answer arrives as a
// stream of concatenated JSON objects which are merged into a single product
// list; trailing non-JSON text is tolerated.
func (c *Client) Ask(ctx context.Context, query string, opts AskOptions) (*Answer, error) {
	req := askRequest{
		Query:            query,
		AnswerJSONSchema: productAnswerSchema(),
	}
	if opts.From != nil {
		req.RangeCreationStart = opts.From.Format(time.RFC3339)
	}
	if opts.To != nil {
		req.RangeCreationEnd = opts.To.Format(time.RFC3339)
	}

	var resp askResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.kbURL("/ask"), c.cfg.ReaderKey, req, &resp); err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}

	structured := parseAnswerStream(resp.Answer, c.logger)
	answer := &Answer{
		Raw:        resp.Answer,
		Structured: structured,
		Citations:  resp.Citations,
	}

	if structured == nil {
		c.logger.Warn("no structured products in answer", "query", query, "answer_len", len(resp.Answer))
	}
	return answer, nil
}

// Rephrase rewrites a query through the predict endpoint.
// A rephrase failure still returns the original query.
func (c *Client) Rephrase(ctx context.Context, query string, contextLines []string) (string, error) {
	req := rephraseRequest{Query: query, Context: contextLines}

	var resp rephraseResponse
	if err := c.makeRequest(ctx, http.MethodPost, c.kbURL("/predict/rephrase"), c.cfg.ReaderKey, req, &resp); err != nil {
		return query, fmt.Errorf("rephrasing query: %w", err)
	}
	if resp.RephrasedQuery == "" {
		return query, nil
	}
	return resp.RephrasedQuery, nil
}

// Entities returns the named entities and relations Nuclia extracted for a resource.
func (c *Client) Entities(ctx context.Context, documentID string) (*Entities, error) {
	var resp resourceResponse
	if err := c.makeRequest(ctx, http.MethodGet, c.kbURL("/resource/"+documentID), c.cfg.ReaderKey, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching resource entities: %w", err)
	}
	return &Entities{Entities: resp.Data.Entities, Relations: resp.Data.Relations}, nil
}

// Resource returns a resource verbatim as provider JSON.
func (c *Client) Resource(ctx context.Context, documentID string) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.makeRequest(ctx, http.MethodGet, c.kbURL("/resource/"+documentID), c.cfg.ReaderKey, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching resource: %w", err)
	}
	return resp, nil
}

// ListResources lists indexed resources, relayed verbatim.
func (c *Client) ListResources(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	u := c.kbURL("/resources") + "?" + url.Values{
		"page": {"0"},
		"size": {strconv.Itoa(limit)},
	}.Encode()

	var resp listResourcesResponse
	if err := c.makeRequest(ctx, http.MethodGet, u, c.cfg.ReaderKey, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return resp.Resources, nil
}

// makeRequest is a helper method to make HTTP requests to the Nuclia API.
// key selects which service account authenticates the call.
func (c *Client) makeRequest(ctx context.Context, method, url, key string, body, result any) error {
	if key == "" {
		return fmt.Errorf("no API key configured for this operation")
	}

	if err := c.httpValidator.ValidateURL(url); err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-NUCLIA-SERVICEACCOUNT", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.httpValidator.MaxResponseSize()))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("nuclia API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
