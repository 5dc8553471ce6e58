package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/internal/nuclia"
)

var (
	flagAskFrom string
	flagAskTo   string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a product question over the indexed content",
	Long: `Asks the knowledge box a question and prints the structured products
found in the answer. Date filters restrict the answer to resources indexed
in the given range.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, "/ask-product-details", strings.Join(args, " "))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed products",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, "/search-products", strings.Join(args, " "))
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, searchCmd} {
		c.Flags().StringVar(&flagAskFrom, "from", "", "only consider content indexed on or after this date (YYYY-MM-DD)")
		c.Flags().StringVar(&flagAskTo, "to", "", "only consider content indexed on or before this date (YYYY-MM-DD)")
	}
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
}

func runAsk(cmd *cobra.Command, path, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("query is required")
	}

	env, err := setupClient()
	if err != nil {
		return err
	}

	var resp struct {
		Success        bool                   `json:"success"`
		Answer         string                 `json:"answer"`
		StructuredData *nuclia.StructuredData `json:"structured_data"`
	}
	err = env.client.postJSON(cmd.Context(), path, map[string]any{
		"query":    query,
		"fromDate": flagAskFrom,
		"toDate":   flagAskTo,
	}, &resp)
	if err != nil {
		return err
	}

	if resp.StructuredData == nil || len(resp.StructuredData.Products) == 0 {
		if resp.Answer != "" {
			fmt.Println(resp.Answer)
		} else {
			fmt.Println("No products found.")
		}
		return nil
	}

	if resp.StructuredData.Summary != "" {
		fmt.Println(resp.StructuredData.Summary)
		fmt.Println()
	}
	printProducts(resp.StructuredData.Products)
	return nil
}
