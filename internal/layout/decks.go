package layout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pable/go-restream-stats/internal/model"
)

// TriforceBlitzS3 is the Triforce Blitz Season 3 deck.
type TriforceBlitzS3 struct{}

func (TriforceBlitzS3) Name() string    { return "tfbs3" }
func (TriforceBlitzS3) UsesStats() bool { return true }

// Round shortens bracket round names for the deck's title banner.
func (TriforceBlitzS3) Round(round string) string {
	switch {
	case strings.HasPrefix(round, "Groups ") && strings.HasSuffix(round, "Tiebreaker"):
		return strings.TrimPrefix(round, "Groups ")
	case strings.HasPrefix(round, "Groups "):
		return "Group Stage"
	case strings.HasPrefix(round, "Bracket "):
		return strings.TrimPrefix(round, "Bracket ")
	}
	return round
}

func (d TriforceBlitzS3) Slides(m model.ScheduledMatch, stats *model.FaceOffStats) ([]Slide, error) {
	if err := requireSolo(m); err != nil {
		return nil, err
	}
	p1, p2 := m.Runner1, m.Runner2
	round := d.Round(m.Round)

	slides := []Slide{{
		Name: "title",
		Text: map[string]string{
			"round":        round,
			"player1_name": p1.Name,
			"player1_rank": FormatRank(p1.Rank),
			"player2_name": p2.Name,
			"player2_rank": FormatRank(p2.Rank),
		},
	}}

	if stats != nil {
		text := map[string]string{
			"player1_name":     p1.Name,
			"player1_twitch":   p1.Twitch,
			"player1_rank":     FormatRank(p1.Rank),
			"player1_pronouns": FormatPronouns(p1.Pronouns),
			"player2_name":     p2.Name,
			"player2_twitch":   p2.Twitch,
			"player2_rank":     FormatRank(p2.Rank),
			"player2_pronouns": FormatPronouns(p2.Pronouns),

			"player1_best_time":      FormatDuration(stats.Player1Stats.BestTime),
			"player1_best_time_date": FormatDate(stats.Player1Stats.BestTimeAt),
			"player2_best_time":      FormatDuration(stats.Player2Stats.BestTime),
			"player2_best_time_date": FormatDate(stats.Player2Stats.BestTimeAt),
		}
		headToHead(text, stats)
		slides = append(slides, Slide{Name: "stats", Text: text})
	}

	slides = append(slides, Slide{
		Name: "race",
		Text: map[string]string{
			"round":            round,
			"player1_name":     p1.Name,
			"player1_twitch":   p1.Twitch,
			"player1_rank":     FormatRank(p1.Rank),
			"player1_country":  p1.Country,
			"player1_pronouns": FormatPronouns(p1.Pronouns),
			"player2_name":     p2.Name,
			"player2_twitch":   p2.Twitch,
			"player2_rank":     FormatRank(p2.Rank),
			"player2_country":  FlagRight(p2.Country),
			"player2_pronouns": FormatPronouns(p2.Pronouns),
		},
	})
	return slides, nil
}

// ChallengeCupS8 is the Challenge Cup Season 8 deck. It shows flags only
// and has no best-time row.
type ChallengeCupS8 struct{}

var finalsRound = regexp.MustCompile(`(?i)^(\s*Brackets\s+)((Quarter|Semi)-?)?Final`)

func (ChallengeCupS8) Name() string    { return "ccs8" }
func (ChallengeCupS8) UsesStats() bool { return true }

// Round drops the "Brackets " prefix from final rounds only.
func (ChallengeCupS8) Round(round string) string {
	loc := finalsRound.FindStringSubmatchIndex(round)
	if loc == nil {
		return round
	}
	return round[:loc[2]] + round[loc[3]:]
}

func (d ChallengeCupS8) Slides(m model.ScheduledMatch, stats *model.FaceOffStats) ([]Slide, error) {
	if err := requireSolo(m); err != nil {
		return nil, err
	}
	p1, p2 := m.Runner1, m.Runner2
	round := d.Round(m.Round)

	slides := []Slide{{
		Name: "title",
		Text: map[string]string{
			"round":            round,
			"player1_name":     p1.Name,
			"player1_flag":     Flag(p1.Country),
			"player1_rank":     FormatRank(p1.Rank),
			"player1_pronouns": FormatPronouns(p1.Pronouns),
			"player2_name":     p2.Name,
			"player2_flag":     Flag(p2.Country),
			"player2_rank":     FormatRank(p2.Rank),
			"player2_pronouns": FormatPronouns(p2.Pronouns),
		},
	}}

	if stats != nil {
		text := map[string]string{
			"player1_name":     p1.Name,
			"player1_flag":     Flag(p1.Country),
			"player1_twitch":   p1.Twitch,
			"player1_rank":     FormatRank(p1.Rank),
			"player1_pronouns": FormatPronouns(p1.Pronouns),
			"player2_name":     p2.Name,
			"player2_flag":     Flag(p2.Country),
			"player2_twitch":   p2.Twitch,
			"player2_rank":     FormatRank(p2.Rank),
			"player2_pronouns": FormatPronouns(p2.Pronouns),
		}
		headToHead(text, stats)
		slides = append(slides, Slide{Name: "stats", Text: text})
	}

	slides = append(slides, Slide{
		Name: "race",
		Text: map[string]string{
			"round":            round,
			"player1_name":     p1.Name,
			"player1_twitch":   p1.Twitch,
			"player1_rank":     FormatRank(p1.Rank),
			"player1_flag":     Flag(p1.Country),
			"player1_pronouns": FormatPronouns(p1.Pronouns),
			"player2_name":     p2.Name,
			"player2_twitch":   p2.Twitch,
			"player2_rank":     FormatRank(p2.Rank),
			"player2_flag":     Flag(p2.Country),
			"player2_pronouns": FormatPronouns(p2.Pronouns),
		},
	})
	return slides, nil
}

// CoOpS3 is the Co-Op Tournament Season 3 deck for two-player teams.
type CoOpS3 struct{}

func (CoOpS3) Name() string    { return "coops3" }
func (CoOpS3) UsesStats() bool { return false }

// Round shortens group and bracket round names.
func (CoOpS3) Round(round string) string {
	switch {
	case strings.HasPrefix(round, "Groups ") && strings.HasSuffix(round, "Tiebreaker"):
		return strings.TrimPrefix(round, "Groups ")
	case strings.HasPrefix(round, "Groups "):
		return "Group Stage"
	case strings.HasPrefix(round, "Brackets "):
		return strings.TrimPrefix(round, "Brackets ")
	}
	return round
}

func (d CoOpS3) Slides(m model.ScheduledMatch, _ *model.FaceOffStats) ([]Slide, error) {
	if !m.IsTeamMatch() {
		return nil, fmt.Errorf("%w: expected a team match", ErrMatchMismatch)
	}
	t1, t2 := m.Team1, m.Team2
	if len(t1.Players) < 2 || len(t2.Players) < 2 {
		return nil, fmt.Errorf("%w: teams need two players each, got %d and %d", ErrMatchMismatch, len(t1.Players), len(t2.Players))
	}
	title := fmt.Sprintf("Co-Op Tournament Season 3\n%s: %s vs %s", d.Round(m.Round), t1.Name, t2.Name)

	race := map[string]string{
		"title":      title,
		"team1_name": t1.Name,
		"team2_name": t2.Name,
	}
	for i, p := range t1.Players[:2] {
		key := fmt.Sprintf("team1_player%d", i+1)
		race[key] = strings.TrimSpace(Flag(p.Country) + " " + p.Name)
		race[key+"_pronouns"] = FormatPronouns(p.Pronouns)
	}
	// Flags sit on the outside edge, so team 2 carries them on the right.
	for i, p := range t2.Players[:2] {
		key := fmt.Sprintf("team2_player%d", i+1)
		race[key] = strings.TrimSpace(p.Name + " " + Flag(p.Country))
		race[key+"_pronouns"] = FormatPronouns(p.Pronouns)
	}

	return []Slide{
		{Name: "title", Text: map[string]string{"title": title}},
		{Name: "race", Text: race},
	}, nil
}
