package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/db"
	"github.com/nadinev6/RAGgle/internal/api"
	"github.com/nadinev6/RAGgle/internal/config"
	"github.com/nadinev6/RAGgle/internal/extract"
	"github.com/nadinev6/RAGgle/internal/nuclia"
	"github.com/nadinev6/RAGgle/internal/product"
	"github.com/nadinev6/RAGgle/internal/security"
)

var (
	flagServeAddr    string
	flagServeMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the indexing and search backend",
	Long: `Starts the HTTP backend. It forwards indexing and ask requests to the
Nuclia knowledge box and records product bookkeeping in PostgreSQL.

The server runs without a database when PostgreSQL is unreachable; product
bookkeeping endpoints then return 503 while indexing keeps working.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&flagServeMigrate, "migrate", false, "run database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting backend", "version", AppVersion)

	httpValidator := security.NewHTTP()

	indexer, err := nuclia.New(nuclia.ClientConfig{
		WriterKey:    cfg.NucliaWriterKey,
		ReaderKey:    cfg.NucliaReaderKey,
		KnowledgeBox: cfg.KnowledgeBox,
		BaseURL:      cfg.APIBase,
	}, httpValidator, logger)
	if err != nil {
		return fmt.Errorf("creating Nuclia client: %w", err)
	}

	fetcher, err := extract.NewFetcher(httpValidator, logger)
	if err != nil {
		return fmt.Errorf("creating fetcher: %w", err)
	}

	var (
		pool  *pgxpool.Pool
		store api.ProductStore
	)
	if flagServeMigrate {
		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	pool, err = pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err != nil {
		logger.Warn("PostgreSQL unavailable, product bookkeeping disabled", "error", err)
		if pool != nil {
			pool.Close()
			pool = nil
		}
	} else {
		defer pool.Close()
		store = product.NewStore(pool, logger)
		logger.Info("connected to PostgreSQL", "host", cfg.PostgresHost, "database", cfg.PostgresDBName)
	}

	server, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Config:      cfg,
		Indexer:     indexer,
		Fetcher:     fetcher,
		Products:    store,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	addr := flagServeAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}
	return server.Run(ctx, addr)
}
