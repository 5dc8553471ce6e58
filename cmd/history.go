package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadinev6/RAGgle/internal/history"
)

var (
	flagHistoryFrom     string
	flagHistoryTo       string
	flagHistoryLastDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the local indexing history",
	Long: `Lists the URLs previously indexed from this machine. The history lives
in a local file and only records successful indexing calls.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runHistoryList()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the local indexing history",
	RunE: func(_ *cobra.Command, _ []string) error {
		env, err := setupClient()
		if err != nil {
			return err
		}
		if err := env.history.Clear(); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryFrom, "from", "", "show entries on or after this date (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&flagHistoryTo, "to", "", "show entries on or before this date (YYYY-MM-DD)")
	historyCmd.Flags().IntVar(&flagHistoryLastDays, "last-days", 0, "show entries from the last N days")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList() error {
	env, err := setupClient()
	if err != nil {
		return err
	}

	from, to, err := historyRange()
	if err != nil {
		return err
	}

	entries := history.Filter(env.history.Load(), from, to)
	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.IndexedAt.Format("2006-01-02 15:04"), e.URL)
		if e.Title != "" {
			fmt.Printf("                  %s\n", e.Title)
		}
	}
	fmt.Printf("\n%d entries.\n", len(entries))
	return nil
}

// historyRange resolves the date filter flags. --last-days wins over
// explicit dates.
func historyRange() (from, to *time.Time, err error) {
	if flagHistoryLastDays > 0 {
		f, t := history.LastNDays(flagHistoryLastDays, time.Now())
		return &f, &t, nil
	}

	if flagHistoryFrom != "" {
		f, err := time.Parse("2006-01-02", flagHistoryFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --from date (expected YYYY-MM-DD): %s", flagHistoryFrom)
		}
		from = &f
	}
	if flagHistoryTo != "" {
		t, err := time.Parse("2006-01-02", flagHistoryTo)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --to date (expected YYYY-MM-DD): %s", flagHistoryTo)
		}
		to = &t
	}
	return from, to, nil
}
