package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/internal/product"
)

var (
	flagProductsLimit int
	flagCompareIDs    []int64
	flagCompareDocs   []string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Work with the product bookkeeping store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProductsList(cmd)
	},
}

var productsCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare products attribute by attribute",
	Long: `Builds a side-by-side attribute comparison for the selected products.
Products are selected by bookkeeping row id (--id) or by knowledge-box
document id (--doc).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProductsCompare(cmd)
	},
}

func init() {
	productsCmd.Flags().IntVar(&flagProductsLimit, "limit", 50, "maximum number of products to list")
	productsCompareCmd.Flags().Int64SliceVar(&flagCompareIDs, "id", nil, "product row id (repeatable)")
	productsCompareCmd.Flags().StringSliceVar(&flagCompareDocs, "doc", nil, "knowledge-box document id (repeatable)")
	productsCmd.AddCommand(productsCompareCmd)
	rootCmd.AddCommand(productsCmd)
}

func runProductsList(cmd *cobra.Command) error {
	env, err := setupClient()
	if err != nil {
		return err
	}

	var resp struct {
		Success  bool              `json:"success"`
		Products []product.Product `json:"products"`
		Total    int               `json:"total"`
	}
	path := fmt.Sprintf("/products?limit=%d", flagProductsLimit)
	if err := env.client.getJSON(cmd.Context(), path, &resp); err != nil {
		return err
	}

	if len(resp.Products) == 0 {
		fmt.Println("No products recorded.")
		return nil
	}

	for _, p := range resp.Products {
		fmt.Printf("#%d  %s\n", p.ID, p.Name)
		fmt.Printf("     %s | %s | %s\n", p.PriceText, p.Supplier, p.Availability)
		fmt.Printf("     %s\n", p.ProductURL)
	}
	fmt.Printf("\n%d products.\n", resp.Total)
	return nil
}

func runProductsCompare(cmd *cobra.Command) error {
	if len(flagCompareIDs) == 0 && len(flagCompareDocs) == 0 {
		return fmt.Errorf("at least one --id or --doc is required")
	}

	env, err := setupClient()
	if err != nil {
		return err
	}

	var resp struct {
		Success    bool                `json:"success"`
		Products   []product.Product   `json:"products"`
		Attributes map[string][]string `json:"comparison_attributes"`
	}
	err = env.client.postJSON(cmd.Context(), "/compare-products", map[string]any{
		"product_ids":         flagCompareIDs,
		"nuclia_document_ids": flagCompareDocs,
	}, &resp)
	if err != nil {
		return err
	}

	names := make([]string, len(resp.Products))
	for i, p := range resp.Products {
		names[i] = p.Name
	}
	fmt.Printf("Comparing: %v\n\n", names)

	attrs := make([]string, 0, len(resp.Attributes))
	for attr := range resp.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		fmt.Printf("%s:\n", attr)
		for i, value := range resp.Attributes[attr] {
			fmt.Printf("  %-20s %s\n", names[i], value)
		}
		fmt.Println()
	}
	return nil
}
