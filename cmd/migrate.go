package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/db"
	"github.com/nadinev6/RAGgle/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Applies all pending migrations to the configured PostgreSQL database.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}

		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		slog.Info("migrations applied",
			"host", cfg.PostgresHost,
			"database", cfg.PostgresDBName,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
