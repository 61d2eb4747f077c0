package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/model"
	"github.com/pable/go-restream-stats/internal/schedule"
	"github.com/pable/go-restream-stats/internal/storage"
)

var importPlayers string

var importCmd = &cobra.Command{
	Use:   "import <schedule.csv>",
	Short: "Import a match schedule exported from the tournament sheet",
	Long: `Import scheduled matches from a CSV export. The header row must contain id
and round, plus either runner1 and runner2 (1v1) or team1, team2,
team1_players and team2_players (co-op, member names separated by ';').

Optional columns: title, start (UTC), and per-runner details
runner1_twitch, runner1_rank, runner1_country, runner1_racetime,
runner1_pronouns (likewise for runner2).

Use --players to import a separate player sheet with the columns name,
twitch, rank, country, racetime and pronouns. Matches are linked to
players by name. Re-importing a match replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importPlayers, "players", "", "CSV file with player details")
}

func runImport(cmd *cobra.Command, args []string) error {
	matches, err := parseFile(args[0], schedule.ParseCSV)
	if err != nil {
		return err
	}
	var players []model.Player
	if importPlayers != "" {
		players, err = parseFile(importPlayers, schedule.ParsePlayersCSV)
		if err != nil {
			return err
		}
	}
	players = append(players, schedule.RunnerProfiles(matches)...)

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if err := db.UpsertPlayers(players); err != nil {
		return fmt.Errorf("store players: %w", err)
	}
	if err := db.InsertMatches(matches); err != nil {
		return fmt.Errorf("store matches: %w", err)
	}
	log.WithField("file", args[0]).Debug("schedule imported")
	fmt.Fprintf(os.Stdout, "Imported %d matches and %d player profiles.\n", len(matches), len(players))
	return nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
