package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/model"
	"github.com/pable/go-restream-stats/internal/report"
	"github.com/pable/go-restream-stats/internal/storage"
)

var matchesUpcoming bool

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List imported scheduled matches",
	Args:  cobra.NoArgs,
	RunE:  runMatches,
}

func init() {
	matchesCmd.Flags().BoolVar(&matchesUpcoming, "upcoming", false, "only matches that have not started yet")
}

func runMatches(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	var matches []model.ScheduledMatch
	if matchesUpcoming {
		matches, err = db.UpcomingMatches(time.Now())
	} else {
		matches, err = db.ListMatches()
	}
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found. Run 'restream import <schedule.csv>' to add some.")
		return nil
	}
	report.PrintMatches(os.Stdout, matches)
	return nil
}
