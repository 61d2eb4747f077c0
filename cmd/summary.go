package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/report"
	"github.com/pable/go-restream-stats/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate counts for everything stored in the database: races,
entrants, distinct contestants, imported players and scheduled matches,
and the date range covered by stored races.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Races == 0 && ov.Matches == 0 {
		fmt.Fprintln(os.Stdout, "Database is empty. Run 'restream fetch' or 'restream import' first.")
		return nil
	}
	report.PrintOverview(os.Stdout, ov)
	return nil
}
