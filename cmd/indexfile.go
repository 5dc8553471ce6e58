package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/internal/history"
)

var flagIndexFileTitle string

var indexFileCmd = &cobra.Command{
	Use:   "index-file <path>",
	Short: "Index a local text or HTML file",
	Long: `Uploads a local document to the knowledge box through the backend.
Files ending in .html or .htm are sent as HTML, everything else as plain text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexFile(cmd, args[0])
	},
}

func init() {
	indexFileCmd.Flags().StringVar(&flagIndexFileTitle, "title", "", "resource title (defaults to the file name)")
	rootCmd.AddCommand(indexFileCmd)
}

func runIndexFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	format := "PLAIN"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		format = "HTML"
	}

	title := flagIndexFileTitle
	if title == "" {
		title = filepath.Base(path)
	}

	env, err := setupClient()
	if err != nil {
		return err
	}

	var resp struct {
		Success    bool   `json:"success"`
		DocumentID string `json:"document_id"`
	}
	err = env.client.postJSON(cmd.Context(), "/index-text", map[string]any{
		"title":  title,
		"text":   string(data),
		"format": format,
	}, &resp)
	if err != nil {
		return err
	}

	entry := history.Entry{
		URL:        "file://" + path,
		Title:      title,
		DocumentID: resp.DocumentID,
		IndexedAt:  time.Now(),
	}
	if err := env.history.Append(entry); err != nil {
		fmt.Printf("Indexed %s (document %s), but recording history failed: %v\n",
			path, resp.DocumentID, err)
		return nil
	}

	fmt.Printf("Indexed %s as %s\n", path, format)
	fmt.Printf("Document ID: %s\n", resp.DocumentID)
	return nil
}
