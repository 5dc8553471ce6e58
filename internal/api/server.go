// Package api exposes the indexing and search backend over HTTP REST.
//
// Endpoints:
//
//	GET  /health                       liveness probe
//	GET  /ready                        readiness probe (database ping)
//	GET  /nuclia-config                widget configuration for browser clients
//	POST /index-url                    index a URL and bookkeep its product data
//	POST /index-text                   index a raw text or HTML document
//	POST /ask-product-details          structured product question answering
//	POST /search-products              product search with date filters
//	GET  /list-products                indexed resources, relayed from the provider
//	GET  /resources/{id}               one resource, relayed from the provider
//	GET  /resources/{id}/entities      extracted entities and relations
//	GET  /products                     local product bookkeeping rows
//	GET  /products/{id}/price-history  observed prices for one product
//	POST /compare-products             attribute comparison matrix
//
// Health probes sit outside the middleware stack so orchestration traffic
// never counts against rate limits.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nadinev6/RAGgle/internal/config"
	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/nuclia"
	"github.com/nadinev6/RAGgle/internal/product"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "localhost:5000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Indexing waits on the provider and a page fetch, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Indexer is the provider surface the handlers depend on.
// *nuclia.Client satisfies it.
type Indexer interface {
	CreateLink(ctx context.Context, uri, title string, metadata map[string]string) (string, error)
	CreateText(ctx context.Context, title, body, format, sourceURL string, metadata map[string]string) (string, error)
	PatchMetadata(ctx context.Context, documentID string, metadata map[string]string) error
	Ask(ctx context.Context, query string, opts nuclia.AskOptions) (*nuclia.Answer, error)
	Rephrase(ctx context.Context, query string, contextLines []string) (string, error)
	Resource(ctx context.Context, documentID string) (json.RawMessage, error)
	Entities(ctx context.Context, documentID string) (*nuclia.Entities, error)
	ListResources(ctx context.Context, limit int) ([]json.RawMessage, error)
}

// PageFetcher downloads page HTML for metadata extraction.
// *extract.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// ProductStore is the bookkeeping surface the handlers depend on.
// *product.Store satisfies it.
type ProductStore interface {
	Upsert(ctx context.Context, p product.Product) (int64, error)
	List(ctx context.Context, limit, offset int) ([]product.Product, error)
	Compare(ctx context.Context, ids []int64, documentIDs []string) (*product.Comparison, error)
	RecordPrice(ctx context.Context, productID int64, price float64, currency, source string) error
	PriceHistory(ctx context.Context, productID int64) ([]product.PricePoint, error)
}

// ServerConfig wires the server's dependencies.
type ServerConfig struct {
	Logger  log.Logger
	Config  *config.Config
	Indexer Indexer
	Fetcher PageFetcher

	// Products is optional; without it indexing still works but product
	// bookkeeping endpoints return 503.
	Products ProductStore

	// Pool backs the readiness probe. Optional.
	Pool *pgxpool.Pool

	CORSOrigins []string
	TrustProxy  bool
	RateBurst   int
}

// Server is the HTTP server for the backend REST API.
type Server struct {
	cfg    ServerConfig
	mux    *http.ServeMux
	health *HealthHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Indexer == nil {
		return nil, fmt.Errorf("indexer is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	mux := http.NewServeMux()

	NewConfigHandler(cfg.Config).RegisterRoutes(mux)
	NewIndexHandler(cfg.Indexer, cfg.Fetcher, cfg.Products, cfg.Logger).RegisterRoutes(mux)
	NewAskHandler(cfg.Indexer, cfg.Logger).RegisterRoutes(mux)
	NewProductHandler(cfg.Indexer, cfg.Products, cfg.Logger).RegisterRoutes(mux)
	NewResourceHandler(cfg.Indexer, cfg.Logger).RegisterRoutes(mux)

	return &Server{
		cfg:    cfg,
		mux:    mux,
		health: NewHealthHandler(cfg.Pool, cfg.Logger),
	}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → requestID → logging → CORS → rate limit.
// Health probes bypass the stack entirely.
func (s *Server) Handler() http.Handler {
	limiter := newRateLimiter(s.cfg.RateBurst, s.cfg.TrustProxy)

	api := chain(s.mux,
		recoveryMiddleware(s.cfg.Logger),
		requestIDMiddleware,
		loggingMiddleware(s.cfg.Logger),
		securityHeadersMiddleware,
		corsMiddleware(s.cfg.CORSOrigins),
		limiter.middleware,
	)

	root := http.NewServeMux()
	s.health.RegisterRoutes(root)
	root.Handle("/", api)
	return root
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.cfg.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
