package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/internal/history"
)

var (
	flagIndexTitle   string
	flagIndexProduct bool
)

var indexCmd = &cobra.Command{
	Use:   "index <url>",
	Short: "Index a URL into the knowledge box",
	Long: `Sends a URL to the backend for indexing. On success the URL is appended
to the local indexing history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd, strings.TrimSpace(args[0]))
	},
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexTitle, "title", "", "resource title (defaults to one derived from the URL)")
	indexCmd.Flags().BoolVar(&flagIndexProduct, "product", false, "mark the page as a product page")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, rawURL string) error {
	// An empty URL never reaches the network.
	if rawURL == "" {
		return fmt.Errorf("URL is required")
	}

	env, err := setupClient()
	if err != nil {
		return err
	}

	var resp struct {
		Success              bool   `json:"success"`
		DocumentID           string `json:"document_id"`
		MetadataPatchSuccess bool   `json:"metadata_patch_success"`
	}
	err = env.client.postJSON(cmd.Context(), "/index-url", map[string]any{
		"url":             rawURL,
		"title":           flagIndexTitle,
		"is_product_page": flagIndexProduct,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("indexing failed")
	}

	// History records successes only; a failed index never leaves a trace.
	entry := history.Entry{
		URL:        rawURL,
		Title:      flagIndexTitle,
		DocumentID: resp.DocumentID,
		IndexedAt:  time.Now(),
	}
	if err := env.history.Append(entry); err != nil {
		fmt.Printf("Indexed %s (document %s), but recording history failed: %v\n",
			rawURL, resp.DocumentID, err)
		return nil
	}

	fmt.Printf("Indexed %s\n", rawURL)
	fmt.Printf("Document ID: %s\n", resp.DocumentID)
	if !resp.MetadataPatchSuccess {
		fmt.Println("Note: product metadata could not be attached to the resource.")
	}
	return nil
}
