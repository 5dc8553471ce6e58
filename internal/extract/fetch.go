package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/security"
)

// browserHeaders make the metadata fetch look like an ordinary browser visit;
// several retailers serve reduced markup to unknown agents.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Fetcher downloads product pages for metadata extraction.
// All requests go through the SSRF validator's safe client.
type Fetcher struct {
	httpValidator *security.HTTP
	httpClient    *http.Client
	logger        log.Logger
}

// NewFetcher creates a page fetcher.
func NewFetcher(httpValidator *security.HTTP, logger log.Logger) (*Fetcher, error) {
	if httpValidator == nil {
		return nil, fmt.Errorf("http validator is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Fetcher{
		httpValidator: httpValidator,
		httpClient:    httpValidator.CreateSafeHTTPClient(),
		logger:        logger,
	}, nil
}

// Fetch downloads a page and returns its HTML.
// The response body is capped at the validator's size limit.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := f.httpValidator.ValidateURL(pageURL); err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for name, value := range browserHeaders {
		req.Header.Set(name, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.httpValidator.MaxResponseSize()))
	if err != nil {
		return "", fmt.Errorf("reading page body: %w", err)
	}

	f.logger.Debug("fetched page", "url", pageURL, "bytes", len(body))
	return string(body), nil
}
