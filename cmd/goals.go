package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/midos"
)

var goalsCmd = &cobra.Command{
	Use:   "goals [goal name]",
	Short: "List the standard tournament goals known to Midos House",
	Long: `Query Midos House for the goals it manages and print the ones the --standard
filter accepts. Multiworld goals are excluded.

With a goal name, report whether that goal counts as standard instead.`,
	RunE: runGoals,
}

func runGoals(cmd *cobra.Command, args []string) error {
	cache := midos.NewGoalCache(midos.NewClient(cfg.MidosURL, cfg.MidosRPM, log), log)

	if len(args) > 0 {
		goal := strings.Join(args, " ")
		ok, err := cache.IsStandardGoal(cmd.Context(), goal)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(os.Stdout, "%q is a standard goal\n", goal)
		} else {
			fmt.Fprintf(os.Stdout, "%q is not a standard goal\n", goal)
		}
		return nil
	}

	goals, err := cache.StandardGoals(cmd.Context())
	if err != nil {
		return err
	}
	for _, g := range goals {
		fmt.Fprintln(os.Stdout, g)
	}
	return nil
}
