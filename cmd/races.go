package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/report"
	"github.com/pable/go-restream-stats/internal/storage"
)

var racesLimit int

var racesCmd = &cobra.Command{
	Use:   "races",
	Short: "List stored races, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRaces,
}

func init() {
	racesCmd.Flags().IntVarP(&racesLimit, "limit", "n", 50, "maximum number of races to list (0 for all)")
}

func runRaces(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	races, err := db.ListRaces(racesLimit)
	if err != nil {
		return fmt.Errorf("list races: %w", err)
	}
	if len(races) == 0 {
		fmt.Fprintln(os.Stdout, "No races stored yet. Run 'restream fetch <racetime-id>' to add some.")
		return nil
	}
	report.PrintRaces(os.Stdout, races)
	return nil
}
