package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/report"
	"github.com/pable/go-restream-stats/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the race database",
	Long: `Run an arbitrary SQL query against the race database and print results as a table.

Schema overview:
  races(name, category, goal_name, goal_custom, recorded, ended_at, fetched_at)
  entrants(race_name, position, contestant_id, contestant_name, status,
    finish_time, finished_at, place)
  players(name, twitch, rank, country, racetime_id, pronouns)
  matches(id, title, round, start_time, runner1, runner2, team1, team2)
  team_members(match_id, side, position, player_name)

Note: finish_time is stored as an ISO 8601 duration (e.g. PT1H52M11.3S) and
timestamps as fixed-width UTC text, so they sort lexically:
  SELECT name, ended_at FROM races WHERE ended_at >= '2024-01-01' ORDER BY ended_at`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintQueryResult(os.Stdout, cols, rows)
	return nil
}
