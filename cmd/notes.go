package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/config"
	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/model"
)

const notesSystemPrompt = `You are preparing talking points for the commentators of a restreamed
racetime.gg tournament match. You are given the match details and the
head-to-head record of both runners from their shared races.

Rules:
- Use ONLY the data provided. Never invent results, times or history.
- Cite specific numbers when making a claim.
- If the runners have never met, say so and focus on their individual records.
- Keep it to a short bullet list commentators can read live.

Glossary:
- encounters: races both runners completed (finished or forfeited).
- wins: races where the runner placed ahead of the other; a forfeit loses to any finish.
- draws: both forfeited, or both finished with the same place.
- joined / first / second / third / forfeits: counts over each runner's own races.
- best time: fastest finish, with the date it was set.`

const defaultNotesQuestion = "Write the commentator notes for this match."

var (
	notesModel  string
	notesAPIKey string
	notesOpts   faceoff.Options
)

var notesCmd = &cobra.Command{
	Use:   "notes <match-id> [question]",
	Short: "Draft commentator notes for a match with AI (requires an Anthropic API key)",
	Long: `Compute the face-off of a scheduled 1v1 match and ask Claude to turn it into
commentator talking points. An optional question replaces the default prompt.

The API key is read from --api-key, $ANTHROPIC_API_KEY or
~/.restream/anthropic_api_key.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runNotes,
}

func init() {
	notesCmd.Flags().StringVar(&notesModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	notesCmd.Flags().StringVar(&notesAPIKey, "api-key", "", "Anthropic API key")
	filterFlags(notesCmd, &notesOpts)
}

func runNotes(cmd *cobra.Command, args []string) error {
	question := defaultNotesQuestion
	if len(args) == 2 {
		question = args[1]
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
	if m.IsTeamMatch() {
		return fmt.Errorf("match %s is a team match; notes need two runners", m.ID)
	}
	id1, id2 := m.Runner1.RacetimeID, m.Runner2.RacetimeID
	if id1 == "" || id2 == "" {
		return fmt.Errorf("match %s: both runners need a racetime ID", m.ID)
	}

	stats, err := svc.FaceOff(cmd.Context(), id1, id2, notesOpts)
	if err != nil {
		return fmt.Errorf("face-off: %w", err)
	}
	contextJSON, err := buildNotesContext(*m, stats)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	apiKey := notesAPIKey
	if apiKey == "" {
		if apiKey, err = config.AnthropicAPIKey(); err != nil {
			return err
		}
	}
	return streamNotes(cmd.Context(), os.Stdout, apiKey, notesModel, contextJSON, question)
}

// buildNotesContext serialises the match and its face-off into compact JSON.
// Values are pre-formatted the way they appear on the restream slides.
func buildNotesContext(m model.ScheduledMatch, s model.FaceOffStats) (string, error) {
	runner := func(p model.Player, wins int, pct float64, ps model.PlayerStats) map[string]interface{} {
		out := map[string]interface{}{
			"name":     p.Name,
			"wins":     wins,
			"win_pct":  layout.FormatPercent(pct),
			"joined":   ps.Joined,
			"first":    ps.First,
			"second":   ps.Second,
			"third":    ps.Third,
			"forfeits": ps.Forfeits,
		}
		if p.Country != "" {
			out["country"] = p.Country
		}
		if p.Rank > 0 {
			out["rank"] = layout.FormatRank(p.Rank)
		}
		if ps.BestTime != nil {
			out["best_time"] = layout.FormatDuration(ps.BestTime)
			out["best_time_date"] = layout.FormatDate(ps.BestTimeAt)
		}
		return out
	}

	doc := map[string]interface{}{
		"match":      m.Title,
		"round":      m.Round,
		"encounters": s.Encounters,
		"draws":      s.Draws,
		"draw_pct":   layout.FormatPercent(s.DrawPercentage),
		"runner1":    runner(m.Runner1, s.Player1Wins, s.Player1WinPercentage, s.Player1Stats),
		"runner2":    runner(m.Runner2, s.Player2Wins, s.Player2WinPercentage, s.Player2Stats),
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// streamNotes streams a response from the Anthropic API to w.
func streamNotes(ctx context.Context, w io.Writer, apiKey, modelID, dataJSON, question string) error {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nREQUEST: %s", dataJSON, question)

	fmt.Fprintln(w, "\n─── Commentator Notes ───────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: notesSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(w, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(w, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
