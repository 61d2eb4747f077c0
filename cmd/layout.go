package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/layout"
)

var (
	layoutDeck string
	layoutOpts faceoff.Options
)

var layoutCmd = &cobra.Command{
	Use:   "layout <match-id>",
	Short: "Render the slide layout of a scheduled match as YAML",
	Long: `Render the restream slides of an imported match for one tournament deck and
write them to stdout as YAML.

Decks: ` + strings.Join(layout.Names(), ", ") + `

Decks with a statistics slide compute the face-off of both runners from
stored races; pass --fetch to refresh them from racetime.gg first.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().StringVar(&layoutDeck, "deck", "", "deck name (required)")
	layoutCmd.MarkFlagRequired("deck")
	filterFlags(layoutCmd, &layoutOpts)
}

func runLayout(cmd *cobra.Command, args []string) error {
	deck, err := layout.Lookup(layoutDeck)
	if err != nil {
		return err
	}

	db, svc, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatch(args[0])
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("no match with id %q", args[0])
	}

	doc, err := svc.Layout(cmd.Context(), *m, deck, layoutOpts)
	if err != nil {
		return err
	}
	return layout.Encode(os.Stdout, doc)
}
