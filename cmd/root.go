// Package cmd implements the raggle command line interface.
//
// raggle has two halves: `raggle serve` runs the HTTP backend that proxies
// the Nuclia knowledge box and bookkeeps product data, and the remaining
// commands are a thin client for that backend, keeping a local indexing
// history on disk.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/internal/log"
)

var (
	flagDebug   bool
	flagLogJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "raggle",
	Short: "Index web pages into a Nuclia knowledge box and search them",
	Long: `raggle indexes product pages and articles into a Nuclia knowledge box,
extracts product metadata along the way, and answers structured product
questions over the indexed content.

Run "raggle serve" to start the backend; the other commands talk to it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if flagDebug {
			level = slog.LevelDebug
		}
		slog.SetDefault(log.New(log.Config{Level: level, JSON: flagLogJSON}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "log in JSON format")
}

// Execute runs the root command. It is the single entry point for main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
