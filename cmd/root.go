package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/config"
	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/logging"
	"github.com/pable/go-restream-stats/internal/midos"
	"github.com/pable/go-restream-stats/internal/racetime"
	"github.com/pable/go-restream-stats/internal/storage"
)

var (
	dbPath   string
	logLevel string

	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "restream",
	Short: "Restream statistics for racetime.gg tournaments",
	Long: `Fetch racetime.gg race histories, compute head-to-head statistics between
two runners and render restream slide layouts for scheduled matches.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		log = logging.New(level)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(faceoffCmd)
	rootCmd.AddCommand(racesCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// newService opens the database and wires the racetime client and goal
// cache into a face-off service. The caller closes the returned DB.
func newService() (*storage.DB, *faceoff.Service, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	rt := racetime.NewClient(cfg.RacetimeURL, cfg.RacetimeRPM, log)
	goals := midos.NewGoalCache(midos.NewClient(cfg.MidosURL, cfg.MidosRPM, log), log)
	return db, faceoff.NewService(db, rt, goals, log), nil
}

// filterFlags registers the race filter flags shared by several commands.
func filterFlags(cmd *cobra.Command, opts *faceoff.Options) {
	cmd.Flags().StringVar(&opts.Goal, "goal", "", "only races with this goal name (case-insensitive)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "only races in this category slug (e.g. ootr)")
	cmd.Flags().BoolVar(&opts.Standard, "standard", false, "only custom goals listed as standard on Midos House")
	cmd.Flags().BoolVar(&opts.NonCustom, "non-custom", false, "only races with a built-in goal")
	cmd.Flags().BoolVar(&opts.RecordedOnly, "recorded", false, "only recorded races")
	cmd.Flags().BoolVar(&opts.Fetch, "fetch", false, "refresh race histories from racetime.gg first")
}
