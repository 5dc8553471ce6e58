package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nadinev6/RAGgle/internal/config"
	"github.com/nadinev6/RAGgle/internal/history"
	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/nuclia"
)

// clientTimeout bounds a single backend call. Indexing waits on the provider
// plus a page fetch, so it is generous.
const clientTimeout = 2 * time.Minute

// maxClientResponse caps how much of a backend response is read.
const maxClientResponse = 10 << 20

// backendClient is a thin JSON client for the raggle backend.
type backendClient struct {
	baseURL    string
	httpClient *http.Client
}

func newBackendClient(cfg *config.Config) *backendClient {
	return &backendClient{
		baseURL:    cfg.BackendURL,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// clientEnv bundles what every client command needs.
type clientEnv struct {
	cfg     *config.Config
	client  *backendClient
	history *history.Store
}

// setupClient loads config and opens the local history store.
func setupClient() (*clientEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := history.NewStore(cfg.HistoryPath, log.NewNop())
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	return &clientEnv{
		cfg:     cfg,
		client:  newBackendClient(cfg),
		history: store,
	}, nil
}

// postJSON sends body to path and decodes the response into result.
// Backend error envelopes become Go errors.
func (c *backendClient) postJSON(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// getJSON fetches path and decodes the response into result.
func (c *backendClient) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

func (c *backendClient) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxClientResponse))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("backend error (status %d): %s", resp.StatusCode, envelope.Error)
		}
		return fmt.Errorf("backend error (status %d)", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// printProducts renders structured products for the terminal.
func printProducts(products []nuclia.Product) {
	for i, p := range products {
		fmt.Printf("%d. %s\n", i+1, p.Name)
		if p.Price != "" {
			fmt.Printf("   Price:        %s\n", p.Price)
		}
		if p.Supplier != "" {
			fmt.Printf("   Supplier:     %s\n", p.Supplier)
		}
		if p.Availability != "" {
			fmt.Printf("   Availability: %s\n", p.Availability)
		}
		if p.Description != "" {
			fmt.Printf("   %s\n", p.Description)
		}
		if p.ProductURL != "" {
			fmt.Printf("   %s\n", p.ProductURL)
		}
		fmt.Println()
	}
}
