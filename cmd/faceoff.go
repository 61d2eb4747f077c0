package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/report"
)

var faceoffOpts faceoff.Options

var faceoffCmd = &cobra.Command{
	Use:   "faceoff <racetime-id> <racetime-id>",
	Short: "Compare two runners across their shared races",
	Long: `Print head-to-head statistics for two racetime.gg users: how often each one
finished ahead of the other, draws, podium counts, forfeits and best times.

Only stored races are used. Pass --fetch to refresh both histories first.`,
	Args: cobra.ExactArgs(2),
	RunE: runFaceOff,
}

func init() {
	filterFlags(faceoffCmd, &faceoffOpts)
}

func runFaceOff(cmd *cobra.Command, args []string) error {
	db, svc, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := svc.FaceOff(cmd.Context(), args[0], args[1], faceoffOpts)
	if err != nil {
		return fmt.Errorf("face-off: %w", err)
	}
	report.PrintFaceOff(os.Stdout, svc.DisplayName(args[0]), svc.DisplayName(args[1]), stats)
	return nil
}
