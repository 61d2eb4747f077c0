package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <racetime-id> [<racetime-id>...]",
	Short: "Download race histories from racetime.gg",
	Long: `Download the full race history of one or more racetime.gg users and store
it in the local database. Races already stored are refreshed in place.

The user ID is the last path segment of a racetime.gg profile URL, e.g.
https://racetime.gg/user/xldAMBlqvY3aOP57 -> xldAMBlqvY3aOP57`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	db, svc, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := svc.SyncAll(cmd.Context(), args...)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-32s %4d races (%d new)\n", r.User.FullName, r.Races, r.New)
	}
	return nil
}
